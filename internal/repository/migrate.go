package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the schema for every persisted model.
// Used by cmd/seed and by sqlite-backed tests; production deployments
// run the same set.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&vesselModel{},
		&tourModel{},
		&addOnModel{},
		&bookingModel{},
		&bookingHistoryModel{},
		&adminNoteModel{},
		&pricingRuleModel{},
		&promoCodeModel{},
		&promoUsageModel{},
		&giftCardModel{},
		&giftCardTxModel{},
		&cashbackAccountModel{},
		&cashbackTxModel{},
		&loyaltyTierModel{},
		&gatewayPaymentModel{},
		&notificationModel{},
	)
}
