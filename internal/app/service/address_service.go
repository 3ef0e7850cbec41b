package service

import (
	"errors"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrAddressNotFound = errors.New("address not found")

type AddressInput struct {
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PinCode      string
	IsDefault    bool
}

type AddressService interface {
	CreateAddress(userID uint, input AddressInput) (*model.Address, error)
	GetUserAddresses(userID uint) ([]model.Address, error)
	GetAddressByID(userID, addressID uint) (*model.Address, error)
	UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	SetDefaultAddress(userID, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

// CreateAddress saves a new address. The user's first address becomes the
// default automatically; an explicit default request demotes the previous
// default.
func (s *addressService) CreateAddress(userID uint, input AddressInput) (*model.Address, error) {
	logger.Info("Creating address", map[string]interface{}{
		"user_id":    userID,
		"is_default": input.IsDefault,
	})

	count, err := s.addressRepo.CountByUserID(userID)
	if err != nil {
		return nil, err
	}

	address := &model.Address{
		UserID:       userID,
		FullName:     input.FullName,
		Phone:        input.Phone,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		PinCode:      input.PinCode,
		IsDefault:    count == 0,
	}

	if err := s.addressRepo.Create(address); err != nil {
		return nil, err
	}

	if input.IsDefault && !address.IsDefault {
		if err := s.addressRepo.SetDefault(userID, address.ID); err != nil {
			return nil, err
		}
		address.IsDefault = true
	}

	return address, nil
}

func (s *addressService) GetUserAddresses(userID uint) ([]model.Address, error) {
	return s.addressRepo.FindByUserID(userID)
}

func (s *addressService) GetAddressByID(userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.UserID != userID {
		return nil, ErrAddressNotFound
	}
	return address, nil
}

func (s *addressService) UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error) {
	address, err := s.GetAddressByID(userID, addressID)
	if err != nil {
		return nil, err
	}

	address.FullName = input.FullName
	address.Phone = input.Phone
	address.AddressLine1 = input.AddressLine1
	address.AddressLine2 = input.AddressLine2
	address.City = input.City
	address.State = input.State
	address.PinCode = input.PinCode

	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}

	if input.IsDefault && !address.IsDefault {
		if err := s.addressRepo.SetDefault(userID, address.ID); err != nil {
			return nil, err
		}
		address.IsDefault = true
	}

	return address, nil
}

// DeleteAddress removes an address. Orders keep their shipping snapshot, so
// deleting an address used by past orders is safe. If the default address
// is deleted the most recent remaining address is promoted.
func (s *addressService) DeleteAddress(userID, addressID uint) error {
	address, err := s.GetAddressByID(userID, addressID)
	if err != nil {
		return err
	}

	wasDefault := address.IsDefault

	if err := s.addressRepo.Delete(addressID); err != nil {
		return err
	}

	if wasDefault {
		remaining, err := s.addressRepo.FindByUserID(userID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			if err := s.addressRepo.SetDefault(userID, remaining[0].ID); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *addressService) SetDefaultAddress(userID, addressID uint) error {
	if _, err := s.GetAddressByID(userID, addressID); err != nil {
		return err
	}
	return s.addressRepo.SetDefault(userID, addressID)
}
