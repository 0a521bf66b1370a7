package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

type PlanPrice struct {
	Plan  domain.PlanID
	Price string
}

type Report struct {
	Status        domain.Status
	PurchaseState domain.PurchaseState
	Prices        []PlanPrice
}

type RenderOptions struct {
	Now        time.Time
	StaleAfter time.Duration
}

// Render lays out report as the status card printed by `subs status`.
func Render(report Report, opts RenderOptions) (string, error) {
	return renderView(report, opts, newStyles()), nil
}

func renderView(report Report, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Syntrafit Subscription"),
		s.header.Render(headerLine(report.Status, opts.Now)),
		s.section.Render(renderEntitlement(report.Status, opts, s)),
	}

	if report.PurchaseState != "" && report.PurchaseState != domain.PurchaseIdle {
		lines = append(lines, s.detail.Render("last purchase: "+strings.ReplaceAll(string(report.PurchaseState), "_", " ")))
	}

	if len(report.Prices) > 0 {
		lines = append(lines, s.section.Render(renderPrices(report.Prices, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(status domain.Status, now time.Time) string {
	source := string(status.Source)
	if source == "" {
		source = string(domain.SourceNone)
	}

	return fmt.Sprintf("source: %s, checked %s", source, formatChecked(status.LastChecked, now))
}

func renderEntitlement(status domain.Status, opts RenderOptions, s styles) string {
	if !status.Valid {
		parts := []string{s.free.Render("Free plan"), s.detail.Render("premium features locked")}
		if status.Source == domain.SourceError {
			parts = append(parts, s.warning.Render("[providers unreachable]"))
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	title := s.premium.Render(planLabel(status.ProductID))
	if opts.StaleAfter > 0 && !opts.Now.IsZero() && !status.Fresh(opts.Now, opts.StaleAfter) {
		title += " " + s.warning.Render("[stale]")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, expiryLine(status, opts.Now, s))
}

func planLabel(productID string) string {
	period, ok := domain.PeriodForProduct(productID)
	switch {
	case !ok:
		return "Premium"
	case period == domain.PeriodYear:
		return "Premium (yearly)"
	default:
		return "Premium (monthly)"
	}
}

func expiryLine(status domain.Status, now time.Time, s styles) string {
	if status.Expiry == nil {
		return s.detail.Render("expires: never")
	}

	expiry := *status.Expiry
	if now.IsZero() {
		return s.detail.Render("expires " + formatDate(expiry, now))
	}

	period, ok := domain.PeriodForProduct(status.ProductID)
	if !ok {
		period = domain.PeriodMonth
	}
	total := period.AddTo(expiry).Sub(expiry)
	remaining := expiry.Sub(now)
	leftPercent := clampPercent(100 * remaining.Seconds() / total.Seconds())

	bar := renderProgressBar(leftPercent, 24, s)
	relative := lipgloss.NewStyle().Foreground(expiryColor(remaining, total)).Render(formatExpiryRelative(expiry, now))

	return lipgloss.JoinHorizontal(lipgloss.Top, s.detail.Render("period:"), " ", bar, " ", relative)
}

func renderPrices(prices []PlanPrice, s styles) string {
	lines := make([]string, 0, len(prices))
	for _, price := range prices {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.priceKey.Render(fmt.Sprintf("%-8s", string(price.Plan)+":")),
			" ",
			s.priceValue.Render(price.Price),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgressBar(leftPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(leftPercent) / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatChecked(checkedAt, now time.Time) string {
	if checkedAt.IsZero() {
		return "never"
	}
	if now.IsZero() {
		return checkedAt.Format(time.RFC3339)
	}

	elapsed := now.Sub(checkedAt)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(elapsed.Hours()/24), "day") + " ago"
	}
}

func formatDate(t, now time.Time) string {
	if now.IsZero() {
		return t.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := t.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return t.Format("15:04")
	}

	return t.Format("15:04 on 02 Jan 2006")
}

func formatExpiryRelative(expiry, now time.Time) string {
	if !expiry.After(now) {
		return "expired " + formatDate(expiry, now)
	}

	remaining := expiry.Sub(now)
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		if hours < 1 {
			hours = 1
		}
		return fmt.Sprintf("expires in %s (%s)", plural(hours, "hour"), formatDate(expiry, now))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	return fmt.Sprintf("expires in %s (%s)", plural(days, "day"), formatDate(expiry, now))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}

	return fmt.Sprintf("%d %ss", n, unit)
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp: 240 faded to 255 bright.
	interpolated := 240.0 + 15.0*normalized

	return lipgloss.Color(fmt.Sprintf("%d", int(interpolated)))
}

// expiryColor brightens as the expiry approaches.
func expiryColor(remaining, total time.Duration) lipgloss.Color {
	if remaining <= 0 {
		return lipgloss.Color("203")
	}

	return interpolateColor(total.Seconds()-remaining.Seconds(), 0, total.Seconds())
}
