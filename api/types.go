package api

import (
	"encoding/json"
	"time"

	"dudebox-backend/store"
)

type StoreInput struct {
	OwnerID      uint   `json:"owner_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Subdomain    string `json:"subdomain" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	Description  string `json:"description"`
	MakerBio     string `json:"maker_bio"`
	WelcomeText  string `json:"welcome_text"`
	PolicyText   string `json:"policy_text"`
	LogoURL      string `json:"logo_url"`
	BannerURL    string `json:"banner_url"`
}

type StoreUpdateInput struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
	Description  *string `json:"description"`
	MakerBio     *string `json:"maker_bio"`
	WelcomeText  *string `json:"welcome_text"`
	PolicyText   *string `json:"policy_text"`
	LogoURL      *string `json:"logo_url"`
	BannerURL    *string `json:"banner_url"`
}

type ProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required"`
	ImageURL    string  `json:"image_url"`
}

type ProductUpdateInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"image_url"`
	Active      *bool    `json:"active"`
}

type ChangeRequestInput struct {
	ChangeType string          `json:"change_type" binding:"required"`
	ProductID  *uint           `json:"product_id"`
	NewData    json.RawMessage `json:"new_data"`
}

type ReviewInput struct {
	ReviewerID uint   `json:"reviewer_id" binding:"required"`
	Reason     string `json:"reason"`
}

type StoreResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	ContactEmail string `json:"contact_email"`
	Description  string `json:"description"`
	MakerBio     string `json:"maker_bio"`
	WelcomeText  string `json:"welcome_text"`
	PolicyText   string `json:"policy_text"`
	LogoURL      string `json:"logo_url"`
	BannerURL    string `json:"banner_url"`
	Status       string `json:"status"`
}

type ProductResponse struct {
	ID                uint    `json:"id"`
	StoreID           uint    `json:"store_id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	ImageURL          string  `json:"image_url"`
	Active            bool    `json:"active"`
	ModerationStatus  string  `json:"moderation_status"`
	HasPendingChanges bool    `json:"has_pending_changes"`
}

// SubmissionResponse wraps the stored entity with the moderation outcome a
// vendor should see inline.
type SubmissionResponse struct {
	Store   *StoreResponse   `json:"store,omitempty"`
	Product *ProductResponse `json:"product,omitempty"`
	Message string           `json:"message,omitempty"`
}

type StorefrontResponse struct {
	Store    StoreResponse     `json:"store"`
	Products []ProductResponse `json:"products"`
}

type ChangeRequestResponse struct {
	ID                 uint            `json:"id"`
	Reference          string          `json:"reference"`
	ChangeType         string          `json:"change_type"`
	StoreID            uint            `json:"store_id"`
	ProductID          *uint           `json:"product_id,omitempty"`
	NewData            json.RawMessage `json:"new_data,omitempty"`
	ModerationSeverity string          `json:"moderation_severity"`
	Status             string          `json:"status"`
	ReviewerID         *uint           `json:"reviewer_id,omitempty"`
	ReviewedAt         *time.Time      `json:"reviewed_at,omitempty"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

type ModerationLogResponse struct {
	ID          uint      `json:"id"`
	ContentType string    `json:"content_type"`
	ProductID   *uint     `json:"product_id,omitempty"`
	IsViolation bool      `json:"is_violation"`
	Severity    string    `json:"severity"`
	Categories  []string  `json:"categories"`
	Reason      string    `json:"reason"`
	Confidence  float64   `json:"confidence"`
	CheckedAt   time.Time `json:"checked_at"`
}

func parseStoreResponse(st *store.Store) *StoreResponse {
	return &StoreResponse{
		ID:           st.ID,
		Name:         st.Name,
		Subdomain:    st.Subdomain,
		ContactEmail: st.ContactEmail,
		Description:  st.Description,
		MakerBio:     st.MakerBio,
		WelcomeText:  st.WelcomeText,
		PolicyText:   st.PolicyText,
		LogoURL:      st.LogoURL,
		BannerURL:    st.BannerURL,
		Status:       st.Status,
	}
}

func parseProductResponse(product *store.Product) *ProductResponse {
	return &ProductResponse{
		ID:                product.ID,
		StoreID:           product.StoreID,
		Name:              product.Name,
		Description:       product.Description,
		Price:             product.Price,
		ImageURL:          product.ImageURL,
		Active:            product.Active,
		ModerationStatus:  product.ModerationStatus,
		HasPendingChanges: product.HasPendingChanges,
	}
}

func parseChangeRequestResponse(req *store.ChangeRequest) ChangeRequestResponse {
	return ChangeRequestResponse{
		ID:                 req.ID,
		Reference:          req.Reference,
		ChangeType:         req.ChangeType,
		StoreID:            req.StoreID,
		ProductID:          req.ProductID,
		NewData:            req.NewData,
		ModerationSeverity: req.ModerationSeverity,
		Status:             req.Status,
		ReviewerID:         req.ReviewerID,
		ReviewedAt:         req.ReviewedAt,
		RejectionReason:    req.RejectionReason,
		CreatedAt:          req.CreatedAt,
	}
}
