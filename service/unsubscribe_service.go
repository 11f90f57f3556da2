package service

import (
	"context"
	"strings"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/storage"
)

type UnsubscribeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

type UnsubscribeService interface {
	Unsubscribe(ctx context.Context, token string) (*UnsubscribeResult, error)
}

type unsubscribeService struct {
	stg  storage.IStorage
	opts Options
	log  logger.ILogger
}

func NewUnsubscribeService(stg storage.IStorage, opts Options, log logger.ILogger) UnsubscribeService {
	return &unsubscribeService{stg: stg, opts: opts, log: log}
}

func (s *unsubscribeService) Unsubscribe(ctx context.Context, token string) (*UnsubscribeResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.Validation("token is required")
	}

	t, err := s.stg.Unsubscribe().GetByToken(ctx, token)
	if err != nil {
		return nil, storageErr(err, "invalid unsubscribe link")
	}
	if t.UsedAt != nil {
		return &UnsubscribeResult{Success: true, Message: "already unsubscribed", Email: t.Email}, nil
	}

	var first bool
	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		first, err = tx.Unsubscribe().MarkUsed(ctx, token, s.opts.Now())
		if err != nil || !first {
			return err
		}
		return tx.Unsubscribe().Suppress(ctx, t.Email)
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !first {
		return &UnsubscribeResult{Success: true, Message: "already unsubscribed", Email: t.Email}, nil
	}

	s.log.Info("customer unsubscribed", logger.String("email", t.Email))
	return &UnsubscribeResult{Success: true, Message: "unsubscribed", Email: t.Email}, nil
}
