// Package cache хранит рассчитанную доступность оборудования в Redis.
// Ключи версионируются по оборудованию: любая запись, меняющая занятость,
// увеличивает версию, и старые ключи просто истекают по TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/model"
)

// NoVersion версия, под которой ничего не сохраняется
const NoVersion int64 = -1

type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewAvailabilityCache создаёт кэш. С nil клиентом все операции
// становятся no-op.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration, prefix string, logger *zap.Logger) *AvailabilityCache {
	if prefix == "" {
		prefix = "uniquip"
	}
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

func (c *AvailabilityCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *AvailabilityCache) versionKey(equipmentID int64) string {
	return fmt.Sprintf("%s:avail:ver:%d", c.prefix, equipmentID)
}

func (c *AvailabilityCache) slotsKey(equipmentID, version int64, day time.Time) string {
	return fmt.Sprintf("%s:avail:%d:v%d:%s", c.prefix, equipmentID, version, day.Format("2006-01-02"))
}

func (c *AvailabilityCache) version(ctx context.Context, equipmentID int64) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(equipmentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get возвращает слоты из кэша и версию оборудования, прочитанную до
// обращения к слотам. При промахе эту версию нужно передать в Set.
// Ошибки Redis считаются промахом, версия тогда NoVersion.
func (c *AvailabilityCache) Get(ctx context.Context, equipmentID int64, day time.Time) ([]model.AvailableSlot, int64, bool) {
	if !c.enabled() {
		return nil, NoVersion, false
	}

	ver, err := c.version(ctx, equipmentID)
	if err != nil {
		c.logger.Debug("Availability cache version read failed", zap.Error(err))
		return nil, NoVersion, false
	}

	raw, err := c.client.Get(ctx, c.slotsKey(equipmentID, ver, day)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Availability cache read failed", zap.Error(err))
		}
		return nil, ver, false
	}

	var slots []model.AvailableSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.logger.Warn("Corrupted availability cache entry", zap.Int64("equipment_id", equipmentID), zap.Error(err))
		return nil, ver, false
	}
	return slots, ver, true
}

// Set сохраняет слоты под версией, прочитанной в Get до расчёта.
// Если между Get и Set бронь изменилась, запись ляжет под устаревшую
// версию и читаться уже не будет.
func (c *AvailabilityCache) Set(ctx context.Context, equipmentID int64, day time.Time, version int64, slots []model.AvailableSlot) {
	if !c.enabled() || version == NoVersion {
		return
	}

	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, c.slotsKey(equipmentID, version, day), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("Availability cache write failed", zap.Error(err))
	}
}

// Invalidate сбрасывает все закэшированные дни оборудования
func (c *AvailabilityCache) Invalidate(ctx context.Context, equipmentID int64) {
	if !c.enabled() {
		return
	}

	if err := c.client.Incr(ctx, c.versionKey(equipmentID)).Err(); err != nil {
		c.logger.Warn("Availability cache invalidation failed",
			zap.Int64("equipment_id", equipmentID),
			zap.Error(err),
		)
	}
}
