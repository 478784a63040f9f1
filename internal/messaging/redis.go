package messaging

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"shiftlight-service/internal/logger"
	"shiftlight-service/internal/types"
)

type Callbacks struct {
	BrightnessCallback func(float64) error // 0.0 .. 1.0
	GameCallback       func(string) error  // protocol profile name, or "auto"
	TestCallback       func(string) error  // "sweep"
}

type RedisClient struct {
	client    *redis.Client
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRedisClient(host string, port int, l *logger.Logger, callbacks Callbacks) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		callbacks: callbacks,
		logger:    l,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		r.logger.Infof("Redis connection failed: %v", err)
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// StartListening starts all Redis listeners after system initialization is complete
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	r.wg.Add(3)
	go r.listCommandListener("shiftlight:brightness", r.handleBrightnessCommand)
	go r.listCommandListener("shiftlight:game", r.handleGameCommand)
	go r.listCommandListener("shiftlight:test", r.handleTestCommand)

	return nil
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Infof("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting %s listener", key)
			return
		default:
			// Use BRPOP with a short timeout to allow periodic context cancellation checks
			result, err := r.client.BRPop(r.ctx, 5*time.Second, key).Result()
			if err != nil {
				if err == redis.Nil {
					// Timeout elapsed, loop back to check context
					continue
				}
				if err == context.Canceled {
					r.logger.Infof("Context cancelled, exiting %s listener", key)
					return
				}
				r.logger.Infof("Error reading from %s list: %v", key, err)
				continue
			}

			if len(result) >= 2 { // BRPOP returns [key, value]
				value := result[1]
				r.logger.Debugf("Received command from %s: %s", key, value)
				if err := handler(value); err != nil {
					r.logger.Warnf("Error handling %s command: %v", key, err)
				}
			}
		}
	}
}

func (r *RedisClient) handleBrightnessCommand(value string) error {
	if r.callbacks.BrightnessCallback == nil {
		return nil
	}
	brightness, err := strconv.ParseFloat(value, 64)
	if err != nil || brightness < 0 || brightness > 1 {
		r.logger.Infof("Invalid brightness command value: %s", value)
		return fmt.Errorf("invalid brightness command: %s", value)
	}
	return r.callbacks.BrightnessCallback(brightness)
}

func (r *RedisClient) handleGameCommand(value string) error {
	if r.callbacks.GameCallback == nil {
		return nil
	}
	if value == "" {
		r.logger.Infof("Empty game command value")
		return fmt.Errorf("invalid game command: %q", value)
	}
	return r.callbacks.GameCallback(value)
}

func (r *RedisClient) handleTestCommand(value string) error {
	if r.callbacks.TestCallback == nil {
		return nil
	}
	switch value {
	case "sweep":
		return r.callbacks.TestCallback(value)
	default:
		r.logger.Infof("Invalid test command value: %s", value)
		return fmt.Errorf("invalid test command: %s", value)
	}
}

// publishHashSet is a helper that atomically updates hash fields and publishes a notification
func (r *RedisClient) publishHashSet(hash string, fields map[string]interface{}, channel, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, fields)
	pipe.Publish(r.ctx, channel, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

// PublishDeviceState publishes the presentation state for dashboards and
// other services watching the "shift-light" hash.
func (r *RedisClient) PublishDeviceState(state types.DeviceState) error {
	r.logger.Debugf("Publishing device state: %s", state)

	fields := map[string]interface{}{
		"state":           string(state),
		"state:timestamp": time.Now().Format(time.RFC3339),
	}
	if err := r.publishHashSet("shift-light", fields, "shift-light", "state"); err != nil {
		r.logger.Warnf("Failed to publish device state: %v", err)
		return err
	}
	return nil
}

// PublishTelemetry publishes the latest smoothed readout. Called at a
// throttled rate from the scheduler, not per tick.
func (r *RedisClient) PublishTelemetry(rpm float64, gear string, protocol types.Protocol) error {
	fields := map[string]interface{}{
		"rpm":      strconv.Itoa(int(rpm + 0.5)),
		"gear":     gear,
		"protocol": string(protocol),
	}
	if err := r.publishHashSet("shift-light", fields, "shift-light", "telemetry"); err != nil {
		r.logger.Warnf("Failed to publish telemetry: %v", err)
		return err
	}
	return nil
}

// PublishBrightness records the active brightness so other services can
// read back what a command actually applied.
func (r *RedisClient) PublishBrightness(brightness float64) error {
	fields := map[string]interface{}{
		"brightness": strconv.FormatFloat(brightness, 'f', 2, 64),
	}
	if err := r.publishHashSet("shift-light", fields, "shift-light", "brightness"); err != nil {
		r.logger.Warnf("Failed to publish brightness: %v", err)
		return err
	}
	return nil
}

// GetSetting reads a persisted setting from the shared "settings" hash.
// Returns an empty string when the field is not set.
func (r *RedisClient) GetSetting(key string) (string, error) {
	value, err := r.client.HGet(r.ctx, "settings", key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	// Wait for all goroutines to finish with a timeout
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Infof("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
