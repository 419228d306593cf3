package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dudebox-backend/notify"
	"dudebox-backend/store"
)

// Service orchestrates vendor content submissions: it applies the write,
// runs the moderation screener on policy-sensitive fields, records the audit
// row, enforces the severity policy and fires best-effort notifications.
type Service struct {
	db       *store.DB
	screener Screener
	notifier notify.Notifier
}

func NewService(db *store.DB, screener Screener, notifier notify.Notifier) *Service {
	return &Service{db: db, screener: screener, notifier: notifier}
}

// Outcome reports what moderation decided about a submission.
type Outcome struct {
	Result *Result
	Action Action
	// ManualReview is set when the screener was unreachable and the content
	// was flagged for a human instead of blocking the write.
	ManualReview bool
}

// StoreUpdate is a vendor's self-service store edit. Nil fields are left
// unchanged.
type StoreUpdate struct {
	Name         *string
	ContactEmail *string
	Description  *string
	MakerBio     *string
	WelcomeText  *string
	PolicyText   *string
	LogoURL      *string
	BannerURL    *string
}

// ProductUpdate is a vendor's self-service product edit.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	ImageURL    *string
	Active      *bool
}

// RegisterStore creates the store row and moderates its text fields.
func (s *Service) RegisterStore(ctx context.Context, st *store.Store) (*Outcome, error) {
	if st.Status == "" {
		st.Status = store.StoreStatusPending
	}
	if _, err := s.db.CreateStore(st); err != nil {
		return nil, err
	}

	return s.moderateStore(ctx, st)
}

// UpdateStore applies the edit immediately, then moderates the merged text.
func (s *Service) UpdateStore(ctx context.Context, st *store.Store, upd StoreUpdate) (*Outcome, error) {
	if upd.Name != nil {
		st.Name = *upd.Name
	}
	if upd.ContactEmail != nil {
		st.ContactEmail = *upd.ContactEmail
	}
	if upd.Description != nil {
		st.Description = *upd.Description
	}
	if upd.MakerBio != nil {
		st.MakerBio = *upd.MakerBio
	}
	if upd.WelcomeText != nil {
		st.WelcomeText = *upd.WelcomeText
	}
	if upd.PolicyText != nil {
		st.PolicyText = *upd.PolicyText
	}
	if upd.LogoURL != nil {
		st.LogoURL = *upd.LogoURL
	}
	if upd.BannerURL != nil {
		st.BannerURL = *upd.BannerURL
	}
	if err := s.db.SaveStore(st); err != nil {
		return nil, err
	}

	return s.moderateStore(ctx, st)
}

// SubmitProduct inserts the product active by default, then moderates it.
// A severe verdict flips it to hidden, a moderate one only flags it.
func (s *Service) SubmitProduct(ctx context.Context, st *store.Store, product *store.Product) (*Outcome, error) {
	product.StoreID = st.ID
	product.Active = true
	product.ModerationStatus = store.ModerationApproved
	if _, err := s.db.CreateProduct(product); err != nil {
		return nil, err
	}

	return s.moderateProduct(ctx, st, product)
}

// UpdateProduct applies the edit immediately, then moderates the post-update
// content.
func (s *Service) UpdateProduct(ctx context.Context, st *store.Store, product *store.Product, upd ProductUpdate) (*Outcome, error) {
	if product.StoreID != st.ID {
		return nil, fmt.Errorf("product %d in store %d: %w", product.ID, st.ID, store.ErrNotFound)
	}

	if upd.Name != nil {
		product.Name = *upd.Name
	}
	if upd.Description != nil {
		product.Description = *upd.Description
	}
	if upd.Price != nil {
		product.Price = *upd.Price
	}
	if upd.ImageURL != nil {
		product.ImageURL = *upd.ImageURL
	}
	if upd.Active != nil {
		product.Active = *upd.Active
	}
	if err := s.db.SaveProduct(product); err != nil {
		return nil, err
	}

	return s.moderateProduct(ctx, st, product)
}

func (s *Service) moderateProduct(ctx context.Context, st *store.Store, product *store.Product) (*Outcome, error) {
	fields := map[string]string{
		"name":        product.Name,
		"description": product.Description,
	}
	result, err := s.screenAndLog(ctx, KindProduct, st.ID, &product.ID, fields)
	if err != nil {
		return nil, err
	}
	if result == nil {
		// Fail-open: keep the write, park the product for manual review.
		product.ModerationStatus = store.ModerationFlagged
		if err := s.db.SaveProduct(product); err != nil {
			return nil, err
		}
		return &Outcome{ManualReview: true}, nil
	}

	action := Decide(KindProduct, result)
	if action.Hide {
		product.ModerationStatus = store.ModerationHidden
		product.Active = false
		if err := s.db.SaveProduct(product); err != nil {
			return nil, err
		}
	} else if action.Flag {
		product.ModerationStatus = store.ModerationFlagged
		if err := s.db.SaveProduct(product); err != nil {
			return nil, err
		}
	}
	if action.Notify {
		s.sendNotifications(ctx, action.Template, notify.Event{
			VendorName:  st.Name,
			VendorEmail: st.ContactEmail,
			ContentType: "product",
			ContentName: product.Name,
			Reason:      result.Reason,
			Categories:  result.Categories,
		})
	}

	return &Outcome{Result: result, Action: action}, nil
}

func (s *Service) moderateStore(ctx context.Context, st *store.Store) (*Outcome, error) {
	fields := map[string]string{
		"name":         st.Name,
		"description":  st.Description,
		"maker_bio":    st.MakerBio,
		"welcome_text": st.WelcomeText,
	}
	result, err := s.screenAndLog(ctx, KindStore, st.ID, nil, fields)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &Outcome{ManualReview: true}, nil
	}

	action := Decide(KindStore, result)
	if action.Suspend {
		st.Status = store.StoreStatusSuspended
		if err := s.db.SaveStore(st); err != nil {
			return nil, err
		}
	}
	if action.Notify {
		s.sendNotifications(ctx, action.Template, notify.Event{
			VendorName:  st.Name,
			VendorEmail: st.ContactEmail,
			ContentType: "store",
			ContentName: st.Name,
			Reason:      result.Reason,
			Categories:  result.Categories,
		})
	}

	return &Outcome{Result: result, Action: action}, nil
}

// screenAndLog runs one moderation check and appends exactly one audit row
// for it. A nil result with a nil error means the screener was unreachable
// and the caller should fall back to manual review.
func (s *Service) screenAndLog(ctx context.Context, kind ContentKind, storeID uint, productID *uint, fields map[string]string) (*Result, error) {
	result, err := s.screener.Screen(ctx, kind, fields)
	if err != nil {
		slog.Warn("moderation screener unavailable, content queued for manual review",
			"kind", kind, "store_id", storeID, "error", err)
		return nil, nil
	}

	entry := &store.ModerationLog{
		ContentType: string(kind),
		StoreID:     storeID,
		ProductID:   productID,
		IsViolation: result.IsViolation,
		Severity:    result.Severity,
		Categories:  strings.Join(result.Categories, ","),
		Reason:      result.Reason,
		Confidence:  result.Confidence,
		CheckedAt:   time.Now(),
	}
	if _, err := s.db.CreateModerationLog(entry); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) sendNotifications(ctx context.Context, tmpl Template, event notify.Event) {
	if err := s.notifier.ModerationAlert(ctx, event); err != nil {
		slog.Warn("failed to send admin moderation alert", "content", event.ContentName, "error", err)
	}

	var err error
	switch tmpl {
	case TemplateHidden:
		err = s.notifier.VendorContentHidden(ctx, event)
	default:
		err = s.notifier.VendorContentFlagged(ctx, event)
	}
	if err != nil {
		slog.Warn("failed to send vendor moderation email", "vendor", event.VendorEmail, "error", err)
	}
}

// FileChangeRequest opens the admin-gated path: it stages the proposed
// change, screens its text for triage severity and records the ledger entry.
// Nothing goes live until an admin applies the request.
func (s *Service) FileChangeRequest(ctx context.Context, st *store.Store, changeType string, productID *uint, newData json.RawMessage) (*store.ChangeRequest, error) {
	req := &store.ChangeRequest{
		ChangeType: changeType,
		StoreID:    st.ID,
		ProductID:  productID,
		NewData:    newData,
	}

	switch changeType {
	case store.ChangeStoreInfo:
		var data store.StoreInfoData
		if err := json.Unmarshal(newData, &data); err != nil {
			return nil, fmt.Errorf("malformed store_info payload: %w", store.ErrValidation)
		}
		fields := map[string]string{}
		if data.Name != nil {
			fields["name"] = *data.Name
		}
		if data.Description != nil {
			fields["description"] = *data.Description
		}
		if data.MakerBio != nil {
			fields["maker_bio"] = *data.MakerBio
		}
		if data.WelcomeText != nil {
			fields["welcome_text"] = *data.WelcomeText
		}
		if len(fields) == 0 && data.ContactEmail == nil && data.PolicyText == nil &&
			data.LogoURL == nil && data.BannerURL == nil {
			return nil, fmt.Errorf("store_info payload proposes no changes: %w", store.ErrValidation)
		}
		if len(fields) > 0 {
			req.ModerationSeverity = s.triageSeverity(ctx, KindStore, st.ID, nil, fields)
		}

	case store.ChangeProductCreate:
		var data store.ProductData
		if err := json.Unmarshal(newData, &data); err != nil {
			return nil, fmt.Errorf("malformed product payload: %w", store.ErrValidation)
		}
		if data.Name == nil || data.Price == nil {
			return nil, fmt.Errorf("product_create requires name and price: %w", store.ErrValidation)
		}
		// Staged insert: invisible until the request is approved.
		product := &store.Product{
			StoreID:           st.ID,
			Name:              *data.Name,
			Price:             *data.Price,
			Active:            false,
			ModerationStatus:  store.ModerationPending,
			HasPendingChanges: true,
		}
		if data.Description != nil {
			product.Description = *data.Description
		}
		if data.ImageURL != nil {
			product.ImageURL = *data.ImageURL
		}
		if _, err := s.db.CreateProduct(product); err != nil {
			return nil, err
		}
		req.ProductID = &product.ID
		req.ModerationSeverity = s.triageSeverity(ctx, KindProduct, st.ID, &product.ID, map[string]string{
			"name":        product.Name,
			"description": product.Description,
		})

	case store.ChangeProductUpdate:
		if productID == nil {
			return nil, fmt.Errorf("product_update requires a product: %w", store.ErrMissingTarget)
		}
		product, err := s.db.GetProductByID(*productID)
		if err != nil {
			return nil, err
		}
		if product.StoreID != st.ID {
			return nil, fmt.Errorf("product %d in store %d: %w", *productID, st.ID, store.ErrNotFound)
		}
		var data store.ProductData
		if err := json.Unmarshal(newData, &data); err != nil {
			return nil, fmt.Errorf("malformed product payload: %w", store.ErrValidation)
		}
		if data.Name == nil && data.Description == nil && data.Price == nil && data.ImageURL == nil {
			return nil, fmt.Errorf("product_update payload proposes no changes: %w", store.ErrValidation)
		}
		product.DraftName = data.Name
		product.DraftDescription = data.Description
		product.DraftPrice = data.Price
		product.DraftImageURL = data.ImageURL
		product.HasPendingChanges = true
		if err := s.db.SaveProduct(product); err != nil {
			return nil, err
		}
		// Screen the merged view a shopper would see after approval.
		name := product.Name
		if data.Name != nil {
			name = *data.Name
		}
		description := product.Description
		if data.Description != nil {
			description = *data.Description
		}
		req.ModerationSeverity = s.triageSeverity(ctx, KindProduct, st.ID, productID, map[string]string{
			"name":        name,
			"description": description,
		})

	case store.ChangeProductDelete:
		if productID == nil {
			return nil, fmt.Errorf("product_delete requires a product: %w", store.ErrMissingTarget)
		}
		product, err := s.db.GetProductByID(*productID)
		if err != nil {
			return nil, err
		}
		if product.StoreID != st.ID {
			return nil, fmt.Errorf("product %d in store %d: %w", *productID, st.ID, store.ErrNotFound)
		}
		product.HasPendingChanges = true
		if err := s.db.SaveProduct(product); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("change type %q: %w", changeType, store.ErrInvalidChangeType)
	}

	if _, err := s.db.CreateChangeRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// triageSeverity screens staged content for queue prioritization only. The
// content is not yet live, so no enforcement action is taken here; screener
// failure degrades to severity none rather than blocking the request.
func (s *Service) triageSeverity(ctx context.Context, kind ContentKind, storeID uint, productID *uint, fields map[string]string) string {
	result, err := s.screenAndLog(ctx, kind, storeID, productID, fields)
	if err != nil || result == nil {
		return store.SeverityNone
	}
	if !result.IsViolation {
		return store.SeverityNone
	}
	return result.Severity
}
