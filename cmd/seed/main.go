package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"bluewave/internal/database"
	"bluewave/internal/domain"
	"bluewave/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "bluewave.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	bookables := repository.NewBookableRepository(db)
	rules := repository.NewPricingRuleRepository(db)
	promos := repository.NewPromoRepository(db)
	cards := repository.NewGiftCardRepository(db)
	tiers := repository.NewLoyaltyRepository(db)

	// ================== USERS ==================
	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@bluewave.co.th",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Operations Admin",
	}
	must(users.Create(ctx, &admin))
	log.Println("Admin created: admin@bluewave.co.th / admin123")

	vendorHash, _ := bcrypt.GenerateFromPassword([]byte("vendor123"), bcrypt.DefaultCost)
	vendor := domain.User{
		Email:        "vendor@bluewave.co.th",
		PasswordHash: string(vendorHash),
		Role:         domain.RoleVendor,
		Name:         "Island Tours Co.",
		Phone:        "+66 76 123 456",
	}
	must(users.Create(ctx, &vendor))

	guestHash, _ := bcrypt.GenerateFromPassword([]byte("guest123"), bcrypt.DefaultCost)
	guest := domain.User{
		Email:        "guest@example.com",
		PasswordHash: string(guestHash),
		Role:         domain.RoleUser,
		Name:         "Sample Guest",
		Phone:        "+66 81 765 432",
	}
	must(users.Create(ctx, &guest))

	// ================== LOYALTY TIERS ==================
	log.Println("Creating loyalty tiers...")

	for _, t := range []domain.LoyaltyTier{
		{
			Name:                 "Crew",
			MinBookings:          0,
			MinLifetimeSpendTHB:  decimal.Zero,
			CashbackPercent:      decimal.NewFromInt(2),
			ExtraDiscountPercent: decimal.Zero,
			FreeCancellationHrs:  24,
		},
		{
			Name:                 "First Mate",
			MinBookings:          3,
			MinLifetimeSpendTHB:  decimal.NewFromInt(30000),
			CashbackPercent:      decimal.NewFromInt(4),
			ExtraDiscountPercent: decimal.NewFromInt(3),
			FreeCancellationHrs:  48,
		},
		{
			Name:                 "Captain",
			MinBookings:          10,
			MinLifetimeSpendTHB:  decimal.NewFromInt(150000),
			CashbackPercent:      decimal.NewFromInt(7),
			ExtraDiscountPercent: decimal.NewFromInt(5),
			FreeCancellationHrs:  72,
		},
	} {
		tier := t
		must(tiers.CreateTier(ctx, &tier))
	}

	// ================== VESSELS AND TOURS ==================
	log.Println("Creating vessels, tours and add-ons...")

	for _, v := range []domain.Vessel{
		{Name: "Andaman Pearl", Category: "catamaran", Capacity: 12, BasePrice: decimal.NewFromInt(4500), Active: true},
		{Name: "Sea Breeze", Category: "speedboat", Capacity: 8, BasePrice: decimal.NewFromInt(3200), Active: true},
		{Name: "Blue Horizon", Category: "yacht", Capacity: 20, BasePrice: decimal.NewFromInt(9800), Active: true},
	} {
		vessel := v
		must(bookables.CreateVessel(ctx, &vessel))
	}

	for _, t := range []domain.Tour{
		{Name: "Phi Phi Island Day Trip", Category: "island_hopping", Capacity: 10, DurationHours: decimal.NewFromInt(6), BasePrice: decimal.NewFromInt(1000), Active: true},
		{Name: "Phang Nga Bay Sunset", Category: "sunset_cruise", Capacity: 16, DurationHours: decimal.NewFromInt(4), BasePrice: decimal.NewFromInt(1500), Active: true},
		{Name: "Similan Diving Safari", Category: "diving", Capacity: 8, DurationHours: decimal.NewFromInt(8), BasePrice: decimal.NewFromInt(3500), Active: true},
	} {
		tour := t
		must(bookables.CreateTour(ctx, &tour))
	}

	for _, a := range []domain.AddOn{
		{Name: "Seafood Lunch", Pricing: domain.AddOnPerPerson, UnitPrice: decimal.NewFromInt(200), Active: true},
		{Name: "Snorkeling Gear", Pricing: domain.AddOnPerItem, UnitPrice: decimal.NewFromInt(150), Active: true},
		{Name: "Onboard Photographer", Pricing: domain.AddOnFixed, UnitPrice: decimal.NewFromInt(1200), Active: true},
		{Name: "Kayak Rental", Pricing: domain.AddOnPerHour, UnitPrice: decimal.NewFromInt(250), Active: true},
	} {
		addOn := a
		must(bookables.CreateAddOn(ctx, &addOn))
	}

	// ================== PRICING RULES ==================
	log.Println("Creating pricing rules...")

	allScope := domain.RuleScope{AppliesTo: domain.ScopeAll}
	for _, r := range []domain.PricingRule{
		{
			Name:       "High season surcharge",
			Type:       domain.RuleSeason,
			Scope:      allScope,
			Condition:  domain.SeasonCondition{From: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2027, 4, 30, 0, 0, 0, 0, time.UTC)},
			Adjustment: domain.AdjustPercent,
			Value:      decimal.NewFromInt(15),
			Priority:   10,
			Stackable:  true,
			Active:     true,
		},
		{
			Name:       "Weekend surcharge",
			Type:       domain.RuleDayOfWeek,
			Scope:      allScope,
			Condition:  domain.DayOfWeekCondition{Days: []time.Weekday{time.Saturday, time.Sunday}},
			Adjustment: domain.AdjustPercent,
			Value:      decimal.NewFromInt(10),
			Priority:   20,
			Stackable:  true,
			Active:     true,
		},
		{
			Name:       "Early bird discount",
			Type:       domain.RuleEarlyBird,
			Scope:      allScope,
			Condition:  domain.EarlyBirdCondition{MinLeadDays: 14},
			Adjustment: domain.AdjustPercent,
			Value:      decimal.NewFromInt(-10),
			Priority:   30,
			Stackable:  true,
			Active:     true,
		},
		{
			Name:       "Group discount 8+",
			Type:       domain.RuleGroupSize,
			Scope:      allScope,
			Condition:  domain.GroupSizeCondition{Min: 8},
			Adjustment: domain.AdjustPercent,
			Value:      decimal.NewFromInt(-5),
			Priority:   40,
			Stackable:  true,
			Active:     true,
		},
	} {
		rule := r
		must(rules.Create(ctx, &rule))
	}

	// ================== PROMO AND GIFT CARD ==================
	log.Println("Creating sample promo code and gift card...")

	promoCode := domain.PromoCode{
		Code:           "WELCOME10",
		Discount:       domain.DiscountPercent,
		Value:          decimal.NewFromInt(10),
		MinOrderTHB:    decimal.NewFromInt(1000),
		MaxDiscountTHB: decimal.NewFromInt(500),
		UsageLimit:     100,
		MaxUsesPerUser: 1,
		ValidFrom:      time.Now().AddDate(0, 0, -1),
		ValidUntil:     time.Now().AddDate(0, 6, 0),
		Scope:          allScope,
		Active:         true,
	}
	must(promos.Create(ctx, &promoCode))

	card := domain.GiftCard{
		Code:          "GC-WELCOME1",
		InitialAmount: decimal.NewFromInt(500),
		Balance:       decimal.NewFromInt(500),
		ValidFrom:     time.Now().AddDate(0, 0, -1),
		ValidUntil:    time.Now().AddDate(1, 0, 0),
		Scope:         allScope,
		Status:        domain.GiftCardActive,
	}
	must(cards.Create(ctx, &card))

	log.Println("Seed complete.")
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
