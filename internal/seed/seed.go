package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/auth/password"
	catalogdomain "github.com/AndreaSpaggiari/sito-andrea/internal/catalog/domain"
)

const (
	disposalMachineCode = "SMALTIMENTO"
	disposalMachineName = "Smaltimento"

	defaultAdminDisplay = "Amministratore"
)

// defaultPhases are the shop's legacy phase names. Categories are
// resolved here, once, and stored on the row.
var defaultPhases = []string{
	"TAGLIO",
	"SBAVATURA",
	"TAGLIO + SBAVATURA",
	"MOLTEPLICE",
	"MOLTEPLICE X ALTRA MACCHINA",
	"STAGNATURA",
	"SCARTO",
}

// EnsureCatalog seeds the reference rows every installation needs: the
// disposal machine scrap orders are routed to, the sentinel phase for
// queued orders, and the legacy phase list.
func EnsureCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureDisposalMachineTx(ctx, tx, node); err != nil {
			return err
		}
		if err := ensureSentinelPhaseTx(ctx, tx, node); err != nil {
			return err
		}
		for _, name := range defaultPhases {
			if err := ensurePhaseTx(ctx, tx, node, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureAdmin seeds the bootstrap admin account for development and
// self-hosted installs.
func EnsureAdmin(db *gorm.DB, email, plainPassword string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("seed admin email is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(plainPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			DisplayName:  defaultAdminDisplay,
			Role:         authdomain.RoleAdmin,
			PasswordHash: &hashed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

func ensureDisposalMachineTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var machine catalogdomain.Machine
	err := tx.WithContext(ctx).Where("code = ?", disposalMachineCode).First(&machine).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	machine = catalogdomain.Machine{
		ID:        node.Generate(),
		Code:      disposalMachineCode,
		Name:      disposalMachineName,
		Disposal:  true,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&machine).Error
}

func ensureSentinelPhaseTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var phase catalogdomain.Phase
	err := tx.WithContext(ctx).Where("name = ?", catalogdomain.SentinelPhaseName).First(&phase).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	phase = catalogdomain.Phase{
		ID:        node.Generate(),
		Name:      catalogdomain.SentinelPhaseName,
		Category:  catalogdomain.CategoryNormal,
		Sentinel:  true,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&phase).Error
}

func ensurePhaseTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string) error {
	var phase catalogdomain.Phase
	err := tx.WithContext(ctx).Where("name = ?", name).First(&phase).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	phase = catalogdomain.Phase{
		ID:        node.Generate(),
		Name:      name,
		Category:  catalogdomain.ResolveCategory(name),
		Sentinel:  false,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&phase).Error
}
