package repository

import (
	"context"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx, so booking
// mutations compose into the caller's transaction.
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

type bookingModel struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	Reference    string `gorm:"column:reference;uniqueIndex"`
	BookableType string `gorm:"column:bookable_type"`
	BookableID   int64  `gorm:"column:bookable_id"`
	UserID       int64  `gorm:"column:user_id;index"`

	StartTime time.Time `gorm:"column:start_time"`
	EndTime   time.Time `gorm:"column:end_time"`
	Adults    int       `gorm:"column:adults"`
	Children  int       `gorm:"column:children"`

	Base              decimal.Decimal `gorm:"column:base;type:decimal(12,2)"`
	AddOnsTotal       decimal.Decimal `gorm:"column:addons_total;type:decimal(12,2)"`
	DynamicAdjustment decimal.Decimal `gorm:"column:dynamic_adjustment;type:decimal(12,2)"`
	PromoDiscount     decimal.Decimal `gorm:"column:promo_discount;type:decimal(12,2)"`
	GiftCardAmount    decimal.Decimal `gorm:"column:gift_card_amount;type:decimal(12,2)"`
	LoyaltyDiscount   decimal.Decimal `gorm:"column:loyalty_discount;type:decimal(12,2)"`
	CashbackEarned    decimal.Decimal `gorm:"column:cashback_earned;type:decimal(12,2)"`
	CashbackSpent     decimal.Decimal `gorm:"column:cashback_spent;type:decimal(12,2)"`
	FinalTotal        decimal.Decimal `gorm:"column:final_total;type:decimal(12,2)"`

	Status string `gorm:"column:status;index"`

	PromoCodeID *int64  `gorm:"column:promo_code_id"`
	PromoCode   *string `gorm:"column:promo_code"`
	GiftCardID  *int64  `gorm:"column:gift_card_id"`

	PaymentMethod *string `gorm:"column:payment_method"`
	PaymentRef    *string `gorm:"column:payment_ref"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	PaidAt      *time.Time `gorm:"column:paid_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

type bookingHistoryModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	BookingID int64     `gorm:"column:booking_id;index"`
	OldStatus string    `gorm:"column:old_status"`
	NewStatus string    `gorm:"column:new_status"`
	ActorType string    `gorm:"column:actor_type"`
	ActorID   int64     `gorm:"column:actor_id"`
	Reason    *string   `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (bookingHistoryModel) TableName() string { return "booking_status_history" }

type adminNoteModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	BookingID int64     `gorm:"column:booking_id;index"`
	Text      string    `gorm:"column:text"`
	AuthorID  int64     `gorm:"column:author_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (adminNoteModel) TableName() string { return "booking_admin_notes" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var promoCode, payMethod, payRef string
	if m.PromoCode != nil {
		promoCode = *m.PromoCode
	}
	if m.PaymentMethod != nil {
		payMethod = *m.PaymentMethod
	}
	if m.PaymentRef != nil {
		payRef = *m.PaymentRef
	}

	return &domain.Booking{
		ID:           m.ID,
		Reference:    m.Reference,
		BookableType: domain.BookableType(m.BookableType),
		BookableID:   m.BookableID,
		UserID:       m.UserID,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		Adults:       m.Adults,
		Children:     m.Children,
		Price: domain.PriceBreakdown{
			Base:              m.Base,
			AddOnsTotal:       m.AddOnsTotal,
			DynamicAdjustment: m.DynamicAdjustment,
			PromoDiscount:     m.PromoDiscount,
			GiftCardAmount:    m.GiftCardAmount,
			LoyaltyDiscount:   m.LoyaltyDiscount,
			CashbackEarned:    m.CashbackEarned,
			CashbackSpent:     m.CashbackSpent,
			FinalTotal:        m.FinalTotal,
		},
		Status:        domain.BookingStatus(m.Status),
		PromoCodeID:   m.PromoCodeID,
		PromoCode:     promoCode,
		GiftCardID:    m.GiftCardID,
		PaymentMethod: payMethod,
		PaymentRef:    payRef,
		ConfirmedAt:   m.ConfirmedAt,
		PaidAt:        m.PaidAt,
		CompletedAt:   m.CompletedAt,
		CancelledAt:   m.CancelledAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var promoCode, payMethod, payRef *string
	if b.PromoCode != "" {
		v := b.PromoCode
		promoCode = &v
	}
	if b.PaymentMethod != "" {
		v := b.PaymentMethod
		payMethod = &v
	}
	if b.PaymentRef != "" {
		v := b.PaymentRef
		payRef = &v
	}

	return bookingModel{
		ID:                b.ID,
		Reference:         b.Reference,
		BookableType:      string(b.BookableType),
		BookableID:        b.BookableID,
		UserID:            b.UserID,
		StartTime:         b.StartTime,
		EndTime:           b.EndTime,
		Adults:            b.Adults,
		Children:          b.Children,
		Base:              b.Price.Base,
		AddOnsTotal:       b.Price.AddOnsTotal,
		DynamicAdjustment: b.Price.DynamicAdjustment,
		PromoDiscount:     b.Price.PromoDiscount,
		GiftCardAmount:    b.Price.GiftCardAmount,
		LoyaltyDiscount:   b.Price.LoyaltyDiscount,
		CashbackEarned:    b.Price.CashbackEarned,
		CashbackSpent:     b.Price.CashbackSpent,
		FinalTotal:        b.Price.FinalTotal,
		Status:            string(b.Status),
		PromoCodeID:       b.PromoCodeID,
		PromoCode:         promoCode,
		GiftCardID:        b.GiftCardID,
		PaymentMethod:     payMethod,
		PaymentRef:        payRef,
		ConfirmedAt:       b.ConfirmedAt,
		PaidAt:            b.PaidAt,
		CompletedAt:       b.CompletedAt,
		CancelledAt:       b.CancelledAt,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

// GetByReferenceForUpdate locks the booking row for the duration of
// the surrounding transaction. Two concurrent transitions on the same
// booking serialize here.
func (r *BookingRepository) GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", ref).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

// Save writes the mutable booking fields back. The price breakdown is
// written only at creation and never changes afterwards.
func (r *BookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	updates := map[string]interface{}{
		"status":         string(b.Status),
		"payment_method": nilIfEmpty(b.PaymentMethod),
		"payment_ref":    nilIfEmpty(b.PaymentRef),
		"confirmed_at":   b.ConfirmedAt,
		"paid_at":        b.PaidAt,
		"completed_at":   b.CompletedAt,
		"cancelled_at":   b.CancelledAt,
	}
	return r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", b.ID).
		Updates(updates).Error
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *BookingRepository) AppendHistory(ctx context.Context, h *domain.BookingStatusHistory) error {
	var reason *string
	if h.Reason != "" {
		v := h.Reason
		reason = &v
	}
	m := bookingHistoryModel{
		BookingID: h.BookingID,
		OldStatus: string(h.OldStatus),
		NewStatus: string(h.NewStatus),
		ActorType: string(h.ActorType),
		ActorID:   h.ActorID,
		Reason:    reason,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	h.ID = m.ID
	h.CreatedAt = m.CreatedAt
	return nil
}

func (r *BookingRepository) HistoryOf(ctx context.Context, bookingID int64) ([]domain.BookingStatusHistory, error) {
	var ms []bookingHistoryModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.BookingStatusHistory, 0, len(ms))
	for _, m := range ms {
		var reason string
		if m.Reason != nil {
			reason = *m.Reason
		}
		out = append(out, domain.BookingStatusHistory{
			ID:        m.ID,
			BookingID: m.BookingID,
			OldStatus: domain.BookingStatus(m.OldStatus),
			NewStatus: domain.BookingStatus(m.NewStatus),
			ActorType: domain.ActorType(m.ActorType),
			ActorID:   m.ActorID,
			Reason:    reason,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *BookingRepository) AddNote(ctx context.Context, n *domain.AdminNote) error {
	m := adminNoteModel{
		BookingID: n.BookingID,
		Text:      n.Text,
		AuthorID:  n.AuthorID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	n.ID = m.ID
	n.CreatedAt = m.CreatedAt
	return nil
}

func (r *BookingRepository) NotesOf(ctx context.Context, bookingID int64) ([]domain.AdminNote, error) {
	var ms []adminNoteModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AdminNote, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.AdminNote{
			ID:        m.ID,
			BookingID: m.BookingID,
			Text:      m.Text,
			AuthorID:  m.AuthorID,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) List(ctx context.Context, status domain.BookingStatus, limit, offset int) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var ms []bookingModel
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// UserStats feeds loyalty-tier derivation: completed bookings and the
// sum of their final totals.
func (r *BookingRepository) UserStats(ctx context.Context, userID int64) (int, decimal.Decimal, error) {
	type row struct {
		Cnt   int64
		Spend decimal.Decimal
	}
	var res row
	err := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Select("COUNT(1) AS cnt, COALESCE(SUM(final_total), 0) AS spend").
		Where("user_id = ? AND status = ?", userID, string(domain.BookingCompleted)).
		Scan(&res).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return int(res.Cnt), res.Spend, nil
}
