package application

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"

	appleSubscriptionsURL    = "itms-apps://apps.apple.com/account/subscriptions"
	appleSubscriptionsWebURL = "https://apps.apple.com/account/subscriptions"
	playSubscriptionsURL     = "https://play.google.com/store/account/subscriptions"
)

// ManagementURLs returns the platform's subscription management deep link and
// the plain web page to fall back to.
func ManagementURLs(platform, packageName, productID string) (primary, fallback string, err error) {
	switch strings.ToLower(platform) {
	case PlatformIOS:
		return appleSubscriptionsURL, appleSubscriptionsWebURL, nil
	case PlatformAndroid:
		if productID == "" || packageName == "" {
			return playSubscriptionsURL, playSubscriptionsURL, nil
		}
		primary = fmt.Sprintf("%s?sku=%s&package=%s", playSubscriptionsURL, url.QueryEscape(productID), url.QueryEscape(packageName))
		return primary, playSubscriptionsURL, nil
	default:
		return "", "", fmt.Errorf("unsupported platform %q", platform)
	}
}
