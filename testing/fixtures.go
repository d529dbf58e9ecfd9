// Package testing provides test utilities and database setup for testing the directory service
package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestEstablishment creates an establishment in the given lifecycle state.
// ACTIVE listings get Active set, every other state starts inactive except
// staged updates and deletions, which stay publicly visible.
func (tf *TestFixtures) CreateTestEstablishment(status string) (*models.Establishment, error) {
	suffix := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	est := &models.Establishment{
		Status:                  status,
		Active:                  status != models.StatusPendingApproval,
		TradeName:               fmt.Sprintf("Doceria da Ana %s", suffix),
		CNPJ:                    fmt.Sprintf("12.345.678/0001-%s", suffix[:2]+suffix[2:4]),
		Category:                "Alimentação",
		OwnerName:               "Ana Souza",
		OwnerCPF:                fmt.Sprintf("123.456.789-%s", suffix[:2]),
		CNAE:                    "5611-2/03",
		Email:                   fmt.Sprintf("ana.%s@example.com", suffix),
		ContactPhone:            "(22) 99999-0000",
		Address:                 "Rua das Flores, 12, Centro, Saquarema",
		Description:             "Doces artesanais sob encomenda",
		DifferentialDescription: "Receitas de família",
		OperatingAreas:          []string{"Centro", "Itaúna"},
	}
	if status == models.StatusActive {
		est.Active = true
	}

	if err := tf.DB.DB.Create(est).Error; err != nil {
		return nil, fmt.Errorf("failed to create test establishment: %w", err)
	}
	return est, nil
}

// CreateTestEstablishmentWithImages creates an active establishment with portfolio rows
func (tf *TestFixtures) CreateTestEstablishmentWithImages(imageURLs []string) (*models.Establishment, error) {
	est, err := tf.CreateTestEstablishment(models.StatusActive)
	if err != nil {
		return nil, err
	}
	for _, url := range imageURLs {
		img := &models.EstablishmentImage{
			EstablishmentID: est.ID,
			ImageURL:        url,
		}
		if err := tf.DB.DB.Create(img).Error; err != nil {
			return nil, fmt.Errorf("failed to create test image: %w", err)
		}
	}
	return est, nil
}

// CreateTestAdmin creates an active admin with the given credentials
func (tf *TestFixtures) CreateTestAdmin(username, password string) (*models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}

// CreateTestUser creates a confirmed platform user
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	suffix := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	user := &models.User{
		Username:       fmt.Sprintf("maria%s", suffix),
		Email:          fmt.Sprintf("maria.%s@example.com", suffix),
		PasswordHash:   "not-used",
		EmailConfirmed: true,
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestReview creates a top level review by the given user
func (tf *TestFixtures) CreateTestReview(userID, establishmentID uint, rating int, comment string) (*models.Review, error) {
	review := &models.Review{
		UserID:          userID,
		EstablishmentID: establishmentID,
		Rating:          utils.ToPtr(rating),
		Comment:         comment,
	}
	if err := tf.DB.DB.Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create test review: %w", err)
	}
	return review, nil
}

// CreateTestCourse creates a course offer
func (tf *TestFixtures) CreateTestCourse(name string) (*models.Course, error) {
	course := &models.Course{
		Name:        name,
		Institution: "SEBRAE",
		Description: "Curso de gestão para microempreendedores",
		Modality:    "online",
	}
	if err := tf.DB.DB.Create(course).Error; err != nil {
		return nil, fmt.Errorf("failed to create test course: %w", err)
	}
	return course, nil
}
