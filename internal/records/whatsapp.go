package records

import "time"

// WhatsApp campaign tables.

type WAContact struct {
	Base
	Name   string   `json:"name"`
	Phone  string   `json:"phone" validate:"required"`
	Tags   []string `json:"tags"`
	OptOut bool     `json:"optOut"`
}

type WATag struct {
	Base
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

type WACampaign struct {
	Base
	Name     string   `json:"name" validate:"required"`
	Message  string   `json:"message"`
	MediaURL string   `json:"mediaUrl" validate:"omitempty,url"`
	TagIDs   []string `json:"tagIds"`
	Status   string   `json:"status" validate:"omitempty,oneof=draft running paused finished"`
}

// WAQueueItem is one contact waiting to be messaged in a campaign.
type WAQueueItem struct {
	Base
	CampaignID string     `json:"campaignId" validate:"required"`
	ContactID  string     `json:"contactId" validate:"required"`
	Phone      string     `json:"phone"`
	Position   int        `json:"position"`
	Status     string     `json:"status" validate:"omitempty,oneof=pending sent skipped failed"`
	SentAt     *time.Time `json:"sentAt"`
}

type WAManualLog struct {
	Base
	CampaignID string    `json:"campaignId"`
	ContactID  string    `json:"contactId"`
	Action     string    `json:"action"`
	At         time.Time `json:"at"`
}

type WACampaignStat struct {
	Base
	CampaignID string `json:"campaignId" validate:"required"`
	Sent       int    `json:"sent"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

var (
	WAContacts      = define(Schema{Name: "wa_contacts"}, func() *WAContact { return &WAContact{} })
	WATags          = define(Schema{Name: "wa_tags"}, func() *WATag { return &WATag{} })
	WACampaigns     = define(Schema{Name: "wa_campaigns"}, func() *WACampaign { return &WACampaign{} })
	WAQueue         = define(Schema{Name: "wa_queue"}, func() *WAQueueItem { return &WAQueueItem{} })
	WAManualLogs    = define(Schema{Name: "wa_manual_logs"}, func() *WAManualLog { return &WAManualLog{} })
	WACampaignStats = define(Schema{Name: "wa_campaign_stats"}, func() *WACampaignStat { return &WACampaignStat{} })
)
