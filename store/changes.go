package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateChangeRequest validates and persists a new pending change request.
// The severity rank column backs the triage ordering of the admin queue.
func (s *DB) CreateChangeRequest(req *ChangeRequest) (uint, error) {
	switch req.ChangeType {
	case ChangeStoreInfo:
	case ChangeProductCreate, ChangeProductUpdate, ChangeProductDelete:
		if req.ProductID == nil {
			return 0, fmt.Errorf("change type %q requires a product: %w", req.ChangeType, ErrMissingTarget)
		}
	default:
		return 0, fmt.Errorf("change type %q: %w", req.ChangeType, ErrInvalidChangeType)
	}

	if req.ModerationSeverity == "" {
		req.ModerationSeverity = SeverityNone
	}
	req.Reference = uuid.NewString()
	req.SeverityRank = severityRank(req.ModerationSeverity)
	req.Status = RequestPending

	tx := s.database.WithContext(s.ctx)
	if result := tx.Create(req); result.Error != nil {
		return 0, fmt.Errorf("failed to create change request: %v", result.Error)
	}

	return req.ID, nil
}

func (s *DB) GetChangeRequest(id uint) (*ChangeRequest, error) {
	var req ChangeRequest
	if err := s.database.First(&req, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("change request %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get change request: %v", err)
	}

	return &req, nil
}

// ApplyChangeRequest transitions a pending request to approved and applies
// the proposed mutation to its target entity. The transition is guarded by a
// conditional update inside the transaction, so two concurrent reviewers
// cannot both apply the same request: the loser sees zero rows affected and
// gets ErrInvalidState.
func (s *DB) ApplyChangeRequest(id uint, reviewerID uint) (*ChangeRequest, error) {
	var req ChangeRequest
	err := s.database.WithContext(s.ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("change request %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get change request: %v", err)
		}

		now := time.Now()
		result := tx.Model(&ChangeRequest{}).
			Where("id = ? AND status = ?", id, RequestPending).
			Updates(map[string]interface{}{
				"status":      RequestApproved,
				"reviewer_id": reviewerID,
				"reviewed_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update change request: %v", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("change request %d is already %s: %w", id, req.Status, ErrInvalidState)
		}

		if err := applyChange(tx, &req); err != nil {
			return err
		}

		req.Status = RequestApproved
		req.ReviewerID = &reviewerID
		req.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &req, nil
}

func applyChange(tx *gorm.DB, req *ChangeRequest) error {
	switch req.ChangeType {
	case ChangeStoreInfo:
		return applyStoreInfo(tx, req)
	case ChangeProductCreate:
		return applyProductCreate(tx, req)
	case ChangeProductUpdate:
		return applyProductUpdate(tx, req)
	case ChangeProductDelete:
		return applyProductDelete(tx, req)
	default:
		return fmt.Errorf("change type %q: %w", req.ChangeType, ErrInvalidChangeType)
	}
}

// applyStoreInfo merges the present keys of new_data into the store row.
// Keys absent from the payload leave their fields untouched.
func applyStoreInfo(tx *gorm.DB, req *ChangeRequest) error {
	var data StoreInfoData
	if err := json.Unmarshal(req.NewData, &data); err != nil {
		return fmt.Errorf("malformed store_info payload: %w", ErrValidation)
	}

	updates := map[string]interface{}{}
	if data.Name != nil {
		updates["name"] = *data.Name
	}
	if data.ContactEmail != nil {
		updates["contact_email"] = *data.ContactEmail
	}
	if data.Description != nil {
		updates["description"] = *data.Description
	}
	if data.MakerBio != nil {
		updates["maker_bio"] = *data.MakerBio
	}
	if data.WelcomeText != nil {
		updates["welcome_text"] = *data.WelcomeText
	}
	if data.PolicyText != nil {
		updates["policy_text"] = *data.PolicyText
	}
	if data.LogoURL != nil {
		updates["logo_url"] = *data.LogoURL
	}
	if data.BannerURL != nil {
		updates["banner_url"] = *data.BannerURL
	}
	if len(updates) == 0 {
		return nil
	}

	result := tx.Model(&Store{}).Where("id = ?", req.StoreID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update store: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store %d: %w", req.StoreID, ErrNotFound)
	}
	return nil
}

// applyProductCreate activates the row inserted when the request was filed.
func applyProductCreate(tx *gorm.DB, req *ChangeRequest) error {
	if req.ProductID == nil {
		return fmt.Errorf("product_create request %d: %w", req.ID, ErrMissingTarget)
	}

	result := tx.Model(&Product{}).Where("id = ?", *req.ProductID).Updates(map[string]interface{}{
		"active":              true,
		"has_pending_changes": false,
		"moderation_status":   ModerationApproved,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to activate product: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", *req.ProductID, ErrNotFound)
	}
	return nil
}

// applyProductUpdate promotes each non-null draft field into its live
// counterpart independently, then clears all drafts.
func applyProductUpdate(tx *gorm.DB, req *ChangeRequest) error {
	if req.ProductID == nil {
		return fmt.Errorf("product_update request %d: %w", req.ID, ErrMissingTarget)
	}

	var product Product
	if err := tx.First(&product, *req.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("product %d: %w", *req.ProductID, ErrNotFound)
		}
		return fmt.Errorf("failed to get product: %v", err)
	}

	updates := map[string]interface{}{
		"draft_name":          nil,
		"draft_description":   nil,
		"draft_price":         nil,
		"draft_image_url":     nil,
		"has_pending_changes": false,
		"moderation_status":   ModerationApproved,
	}
	if product.DraftName != nil {
		updates["name"] = *product.DraftName
	}
	if product.DraftDescription != nil {
		updates["description"] = *product.DraftDescription
	}
	if product.DraftPrice != nil {
		updates["price"] = *product.DraftPrice
	}
	if product.DraftImageURL != nil {
		updates["image_url"] = *product.DraftImageURL
	}

	if result := tx.Model(&product).Updates(updates); result.Error != nil {
		return fmt.Errorf("failed to promote product drafts: %v", result.Error)
	}
	return nil
}

// applyProductDelete soft-deletes: the row stays for historical order line
// items, it just stops being active.
func applyProductDelete(tx *gorm.DB, req *ChangeRequest) error {
	if req.ProductID == nil {
		return fmt.Errorf("product_delete request %d: %w", req.ID, ErrMissingTarget)
	}

	result := tx.Model(&Product{}).Where("id = ?", *req.ProductID).Updates(map[string]interface{}{
		"active":              false,
		"has_pending_changes": false,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate product: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", *req.ProductID, ErrNotFound)
	}
	return nil
}

// RejectChangeRequest transitions a pending request to rejected and rolls
// back any staged entity state. Live fields are never touched.
func (s *DB) RejectChangeRequest(id uint, reviewerID uint, reason string) (*ChangeRequest, error) {
	var req ChangeRequest
	err := s.database.WithContext(s.ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("change request %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get change request: %v", err)
		}

		now := time.Now()
		result := tx.Model(&ChangeRequest{}).
			Where("id = ? AND status = ?", id, RequestPending).
			Updates(map[string]interface{}{
				"status":           RequestRejected,
				"reviewer_id":      reviewerID,
				"reviewed_at":      now,
				"rejection_reason": reason,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update change request: %v", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("change request %d is already %s: %w", id, req.Status, ErrInvalidState)
		}

		if err := rollbackChange(tx, &req); err != nil {
			return err
		}

		req.Status = RequestRejected
		req.ReviewerID = &reviewerID
		req.ReviewedAt = &now
		req.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &req, nil
}

func rollbackChange(tx *gorm.DB, req *ChangeRequest) error {
	switch req.ChangeType {
	case ChangeStoreInfo:
		// Nothing was staged.
		return nil
	case ChangeProductDelete:
		if req.ProductID == nil {
			return fmt.Errorf("product_delete request %d: %w", req.ID, ErrMissingTarget)
		}
		result := tx.Model(&Product{}).Where("id = ?", *req.ProductID).
			Update("has_pending_changes", false)
		if result.Error != nil {
			return fmt.Errorf("failed to clear pending marker: %v", result.Error)
		}
		return nil
	case ChangeProductCreate:
		if req.ProductID == nil {
			return fmt.Errorf("product_create request %d: %w", req.ID, ErrMissingTarget)
		}
		// The row was never live, remove it outright.
		if result := tx.Unscoped().Delete(&Product{}, *req.ProductID); result.Error != nil {
			return fmt.Errorf("failed to delete product: %v", result.Error)
		}
		return nil
	case ChangeProductUpdate:
		if req.ProductID == nil {
			return fmt.Errorf("product_update request %d: %w", req.ID, ErrMissingTarget)
		}
		result := tx.Model(&Product{}).Where("id = ?", *req.ProductID).Updates(map[string]interface{}{
			"draft_name":          nil,
			"draft_description":   nil,
			"draft_price":         nil,
			"draft_image_url":     nil,
			"has_pending_changes": false,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to discard product drafts: %v", result.Error)
		}
		return nil
	default:
		return fmt.Errorf("change type %q: %w", req.ChangeType, ErrInvalidChangeType)
	}
}

func (s *DB) GetPendingChangesCount(storeID uint) (int64, error) {
	var count int64
	err := s.database.Model(&ChangeRequest{}).
		Where("store_id = ? AND status = ?", storeID, RequestPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending change requests: %v", err)
	}

	return count, nil
}

// GetAllPendingChangeRequests returns the admin review queue, severe-first
// and oldest-first within a severity tier.
func (s *DB) GetAllPendingChangeRequests() ([]ChangeRequest, error) {
	var requests []ChangeRequest
	err := s.database.
		Order("severity_rank desc, created_at asc").
		Find(&requests, "status = ?", RequestPending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending change requests: %v", err)
	}

	return requests, nil
}
