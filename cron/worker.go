package cron

import (
	"context"
	"encoding/json"
	"time"

	"fixserv/config"
	"fixserv/services/booking"
	"fixserv/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypePromoteWave = "dispatch:promote_wave"

// WavePromotionPayload identifies which wave a deferred check targets. The
// handler is a no-op when the booking moved on before the timer fired.
type WavePromotionPayload struct {
	BookingID string `json:"bookingId"`
	Wave      int    `json:"wave"`
}

func queueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// AsynqWaveScheduler enqueues wave-promotion tasks with a processing delay.
type AsynqWaveScheduler struct {
	client *asynq.Client
}

func NewAsynqWaveScheduler() *AsynqWaveScheduler {
	return &AsynqWaveScheduler{client: asynq.NewClient(queueRedisOpt())}
}

func (s *AsynqWaveScheduler) ScheduleWavePromotion(ctx context.Context, bookingID string, wave int, delay time.Duration) error {
	b, err := json.Marshal(WavePromotionPayload{BookingID: bookingID, Wave: wave})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypePromoteWave, b)
	_, err = s.client.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3))
	return err
}

func (s *AsynqWaveScheduler) Close() error {
	return s.client.Close()
}

// InitDispatchWorker runs the async worker in background.
func InitDispatchWorker(svc booking.BookingService) {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		queueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePromoteWave, handlePromoteWave(svc))

	go func() {
		logger.Info("starting dispatch worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("dispatch worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("dispatch worker exhausted start attempts")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

func handlePromoteWave(svc booking.BookingService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p WavePromotionPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("invalid wave promotion payload", zap.Error(err))
			return err
		}
		if err := svc.PromoteWave(ctx, p.BookingID, p.Wave); err != nil {
			utils.GetLogger().Error("wave promotion failed",
				zap.String("bookingId", p.BookingID),
				zap.Int("wave", p.Wave),
				zap.Error(err))
			return err
		}
		return nil
	}
}
