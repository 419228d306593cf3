package store

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Store statuses. Suspension blocks public storefront visibility.
const (
	StoreStatusPending   = "pending"
	StoreStatusApproved  = "approved"
	StoreStatusSuspended = "suspended"
)

// Product moderation statuses.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationFlagged  = "flagged"
	ModerationHidden   = "hidden"
)

// Change request types.
const (
	ChangeStoreInfo     = "store_info"
	ChangeProductCreate = "product_create"
	ChangeProductUpdate = "product_update"
	ChangeProductDelete = "product_delete"
)

// Change request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Moderation severities, also persisted on change requests for triage.
const (
	SeverityNone     = "none"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

type Store struct {
	gorm.Model
	OwnerID      uint   `gorm:"index"`
	Name         string `gorm:"size:255"`
	Subdomain    string `gorm:"size:63;uniqueIndex"`
	ContactEmail string `gorm:"size:255"`
	Description  string `gorm:"type:text"`
	MakerBio     string `gorm:"type:text"`
	WelcomeText  string `gorm:"type:text"`
	PolicyText   string `gorm:"type:text"`
	LogoURL      string `gorm:"size:500"`
	BannerURL    string `gorm:"size:500"`
	Status       string `gorm:"size:20;default:'pending';index"`
	Products     []Product
}

// Product carries live fields plus shadow draft fields. Draft fields are
// non-null only while an open product_update change request exists.
type Product struct {
	gorm.Model
	StoreID           uint    `gorm:"index"`
	Name              string  `gorm:"size:255"`
	Description       string  `gorm:"type:text"`
	Price             float64
	ImageURL          string  `gorm:"size:500"`
	Active            bool    `gorm:"default:true"`
	ModerationStatus  string  `gorm:"size:20;default:'approved';index"`
	HasPendingChanges bool    `gorm:"default:false"`
	DraftName         *string `gorm:"size:255"`
	DraftDescription  *string `gorm:"type:text"`
	DraftPrice        *float64
	DraftImageURL     *string `gorm:"size:500"`
}

// ChangeRequest is one proposed mutation awaiting or having completed review.
// It transitions exactly once from pending to approved or rejected.
type ChangeRequest struct {
	gorm.Model
	Reference          string          `gorm:"size:36;uniqueIndex"`
	ChangeType         string          `gorm:"size:20;index"`
	StoreID            uint            `gorm:"index"`
	ProductID          *uint           `gorm:"index"`
	NewData            json.RawMessage `gorm:"type:text"`
	ModerationSeverity string          `gorm:"size:10;default:'none'"`
	SeverityRank       int             `gorm:"index"`
	Status             string          `gorm:"size:20;default:'pending';index"`
	ReviewerID         *uint
	ReviewedAt         *time.Time
	RejectionReason    string          `gorm:"type:text"`
}

// ModerationLog is an append-only audit row, one per moderation check.
type ModerationLog struct {
	gorm.Model
	ContentType string `gorm:"size:10;index"`
	StoreID     uint   `gorm:"index"`
	ProductID   *uint
	IsViolation bool
	Severity    string `gorm:"size:10"`
	Categories  string `gorm:"type:text"`
	Reason      string `gorm:"type:text"`
	Confidence  float64
	CheckedAt   time.Time
}

// StoreInfoData is the new_data payload of a store_info change request.
// Absent keys leave the corresponding store field untouched.
type StoreInfoData struct {
	Name         *string `json:"name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	Description  *string `json:"description,omitempty"`
	MakerBio     *string `json:"maker_bio,omitempty"`
	WelcomeText  *string `json:"welcome_text,omitempty"`
	PolicyText   *string `json:"policy_text,omitempty"`
	LogoURL      *string `json:"logo_url,omitempty"`
	BannerURL    *string `json:"banner_url,omitempty"`
}

// ProductData is the new_data payload of product_create and product_update
// change requests.
type ProductData struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

func severityRank(severity string) int {
	switch severity {
	case SeveritySevere:
		return 2
	case SeverityModerate:
		return 1
	default:
		return 0
	}
}
