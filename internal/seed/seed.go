package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	demoSellerEmail    = "vendedora@rastro.dev"
	demoSellerUsername = "vendedora"
	demoBuyerEmail     = "comprador@rastro.dev"
	demoBuyerUsername  = "comprador"
	demoPassword       = "rastro-demo"
)

// EnsureDemoData seeds a pair of demo accounts and a few listings so a
// fresh development database has something to browse. Every step is
// idempotent; rerunning against a seeded database is a no-op.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seller, err := ensureProfileTx(ctx, tx, node, demoSellerEmail, demoSellerUsername)
		if err != nil {
			return err
		}
		if _, err := ensureProfileTx(ctx, tx, node, demoBuyerEmail, demoBuyerUsername); err != nil {
			return err
		}
		return ensureListingsTx(ctx, tx, node, seller.ID)
	})
}

func ensureProfileTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email, username string) (authdomain.Profile, error) {
	var profile authdomain.Profile
	err := tx.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&profile).Error
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return profile, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return profile, err
	}
	now := time.Now().UTC()
	profile = authdomain.Profile{
		ID:           node.Generate().Int64(),
		Email:        strings.ToLower(email),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&profile).Error; err != nil {
		return profile, err
	}
	return profile, nil
}

func ensureListingsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, sellerID int64) error {
	now := time.Now().UTC()
	auctionEnd := now.Add(72 * time.Hour)
	category := "collectibles"

	listings := []productdomain.Product{
		{
			Slug:        "camara-analogica-demo",
			Name:        "Camara analogica",
			Description: "Camara de carrete en buen estado, probada con un rollo.",
			Price:       60,
			Type:        productdomain.TypeDirectSale,
			Category:    &category,
		},
		{
			Slug:          "vinilo-firmado-demo",
			Name:          "Vinilo firmado",
			Description:   "Primera edicion firmada, funda original.",
			Price:         25,
			Type:          productdomain.TypeAuction,
			AuctionEndsAt: &auctionEnd,
			Category:      &category,
		},
	}

	for i := range listings {
		listing := &listings[i]

		var existing productdomain.Product
		err := tx.WithContext(ctx).Where("slug = ?", listing.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		listing.ID = node.Generate().Int64()
		listing.SellerID = sellerID
		listing.Status = productdomain.StatusAvailable
		listing.Images = pq.StringArray{}
		listing.CreatedAt = now
		listing.UpdatedAt = now
		if err := tx.WithContext(ctx).Create(listing).Error; err != nil {
			return err
		}
	}
	return nil
}
