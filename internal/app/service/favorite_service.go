package service

import (
	"errors"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrAlreadyFavorited = errors.New("product already favorited")
)

type FavoriteService interface {
	AddFavorite(userID, productID uint) (*model.Favorite, error)
	GetUserFavorites(userID uint) ([]model.Favorite, error)
	RemoveFavorite(userID, productID uint) error
	IsFavorited(userID, productID uint) (bool, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	productRepo  repository.ProductRepository
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	productRepo repository.ProductRepository,
) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		productRepo:  productRepo,
	}
}

func (s *favoriteService) AddFavorite(userID, productID uint) (*model.Favorite, error) {
	logger.Info("Adding favorite", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	existing, err := s.favoriteRepo.FindByUserAndProduct(userID, productID)
	if err == nil {
		return existing, ErrAlreadyFavorited
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	favorite := &model.Favorite{
		UserID:    userID,
		ProductID: productID,
	}
	if err := s.favoriteRepo.Create(favorite); err != nil {
		return nil, err
	}

	return favorite, nil
}

func (s *favoriteService) GetUserFavorites(userID uint) ([]model.Favorite, error) {
	return s.favoriteRepo.FindByUserID(userID)
}

func (s *favoriteService) RemoveFavorite(userID, productID uint) error {
	if _, err := s.favoriteRepo.FindByUserAndProduct(userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFavoriteNotFound
		}
		return err
	}
	return s.favoriteRepo.Delete(userID, productID)
}

func (s *favoriteService) IsFavorited(userID, productID uint) (bool, error) {
	_, err := s.favoriteRepo.FindByUserAndProduct(userID, productID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
