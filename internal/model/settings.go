package model

import "time"

// Platform identifies a social media network shown in the site footer.
type Platform string

const (
	PlatformGitHub    Platform = "github"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformMedium    Platform = "medium"
	PlatformTikTok    Platform = "tiktok"
	PlatformDiscord   Platform = "discord"
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformEmail     Platform = "email"
)

// Platforms lists every supported platform, in display order.
func Platforms() []Platform {
	return []Platform{
		PlatformGitHub, PlatformLinkedIn, PlatformTwitter, PlatformInstagram,
		PlatformFacebook, PlatformYouTube, PlatformMedium, PlatformTikTok,
		PlatformDiscord, PlatformTelegram, PlatformWhatsApp, PlatformEmail,
	}
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	for _, known := range Platforms() {
		if p == known {
			return true
		}
	}
	return false
}

// SocialLink is one entry of the social media list.
type SocialLink struct {
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
	IsActive bool     `json:"isActive"`
}

// ContactInfo is the public contact block of the site.
type ContactInfo struct {
	Email    string `json:"email"`
	Location string `json:"location"`
}

// Settings is the singleton site configuration document.
type Settings struct {
	SocialMedia []SocialLink `json:"socialMedia"`
	ContactInfo ContactInfo  `json:"contactInfo"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
