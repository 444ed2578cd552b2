package services

import (
	"errors"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrUserAlreadyExists = errors.New("user with this phone or email already exists")
var ErrInvalidCredentials = errors.New("invalid phone or password")

type RegisterInput struct {
	Phone     string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterUser creates the account together with its wallet in one
// transaction. Every account owns exactly one wallet from the start.
func RegisterUser(input RegisterInput) (*models.User, error) {
	var existing models.User
	result := database.DB.Where("phone = ? OR email = ?", input.Phone, input.Email).First(&existing)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Phone:     input.Phone,
		Email:     input.Email,
		Password:  string(hashedPassword),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      models.RoleCustomer,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		wallet := &models.Wallet{UserID: user.ID, Currency: "MNT"}
		return tx.Create(wallet).Error
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func LoginUser(phone, password string) (string, *models.User, error) {
	var user models.User
	if err := database.DB.Where("phone = ?", phone).First(&user).Error; err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	database.DB.Model(&user).UpdateColumn("last_login", now)
	user.LastLogin = &now

	return token, &user, nil
}
