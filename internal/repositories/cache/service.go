// Package cache provides a redis-backed read cache for buyer and deposit
// snapshots. The ledger never trusts cached values for balance checks; the
// cache only serves read endpoints and is invalidated on every mutation.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cashup/internal/models"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func (s *CacheService) CacheBuyer(ctx context.Context, buyer *models.Buyer) error {
	return s.Set(ctx, s.GenerateKey("buyer", "id", buyer.ID), buyer)
}

func (s *CacheService) GetBuyer(ctx context.Context, buyerID uint) (*models.Buyer, error) {
	var buyer models.Buyer
	found, err := s.Get(ctx, s.GenerateKey("buyer", "id", buyerID), &buyer)
	if err != nil || !found {
		return nil, err
	}
	return &buyer, nil
}

func (s *CacheService) CacheCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error {
	return s.Set(ctx, s.GenerateKey("cashup_deposit", "buyer", dep.BuyerID), dep)
}

func (s *CacheService) GetCashupDeposit(ctx context.Context, buyerID uint) (*models.CashupDeposit, error) {
	var dep models.CashupDeposit
	found, err := s.Get(ctx, s.GenerateKey("cashup_deposit", "buyer", buyerID), &dep)
	if err != nil || !found {
		return nil, err
	}
	return &dep, nil
}

func (s *CacheService) CacheOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error {
	return s.Set(ctx, s.GenerateKey("owing_deposit", "buyer", dep.BuyerID), dep)
}

func (s *CacheService) GetOwingDeposit(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error) {
	var dep models.CashupOwingDeposit
	found, err := s.Get(ctx, s.GenerateKey("owing_deposit", "buyer", buyerID), &dep)
	if err != nil || !found {
		return nil, err
	}
	return &dep, nil
}

// InvalidateBuyer drops every cached snapshot owned by the buyer. Called
// after any ledger mutation that touches their pools.
func (s *CacheService) InvalidateBuyer(ctx context.Context, buyerID uint) error {
	return s.Delete(ctx,
		s.GenerateKey("buyer", "id", buyerID),
		s.GenerateKey("cashup_deposit", "buyer", buyerID),
		s.GenerateKey("owing_deposit", "buyer", buyerID),
	)
}

func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
