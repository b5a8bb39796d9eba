package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reusedev/batch-hub/config"
	"github.com/reusedev/batch-hub/internal/consts"
)

type TokenWithModel struct {
	Token
	Model string // supplier model
}

// TokenManager walks an ordered fallback chain of supplier tokens.
// Suppliers get banned for a window after upstream 5xx responses and
// are restored by the tidy loop once the window passes.
type TokenManager struct {
	banSupplier []consts.ModelSupplier
	expiredAt   []time.Time
	tokens      []TokenWithModel
	lock        *sync.Mutex
}

// GTokenManager holds one fallback chain per task class.
var GTokenManager map[consts.TaskClass]*TokenManager

func InitTokenManager(ctx context.Context) error {
	cfg := config.GConfig
	chains := map[consts.TaskClass][]config.Request{
		consts.ClassImage: cfg.RequestOrder.Image,
		consts.ClassVideo: cfg.RequestOrder.Video,
	}
	GTokenManager = make(map[consts.TaskClass]*TokenManager, len(chains))
	for class, order := range chains {
		tokens := make([]TokenWithModel, 0, len(order))
		for _, req := range order {
			token, err := tokenFromConfig(req)
			if err != nil {
				return err
			}
			tokens = append(tokens, token)
		}
		GTokenManager[class] = NewTokenManager(tokens)
	}
	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				for _, manager := range GTokenManager {
					manager.tidy()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func NewTokenManager(tokens []TokenWithModel) *TokenManager {
	return &TokenManager{tokens: tokens, lock: &sync.Mutex{}}
}

func Manager(class consts.TaskClass) *TokenManager {
	return GTokenManager[class]
}

// GetTokenIterator returns a closure yielding tokens in fallback order,
// skipping banned suppliers. When every supplier is banned the oldest
// ban is lifted so a fresh request still gets an attempt.
func (t *TokenManager) GetTokenIterator() func() *TokenWithModel {
	next := 0
	return func() *TokenWithModel {
		t.lock.Lock()
		defer t.lock.Unlock()
		if next == 0 {
			t.popBanSupplierIfAllBan()
		}
		for next < len(t.tokens) {
			token := t.tokens[next]
			next++
			if t.validToken(token) {
				return &token
			}
		}
		return nil
	}
}

func (t *TokenManager) Ban(supplier consts.ModelSupplier, expiredAt time.Time) {
	t.lock.Lock()
	defer t.lock.Unlock()
	for i, banned := range t.banSupplier {
		if banned == supplier {
			if expiredAt.After(t.expiredAt[i]) {
				t.expiredAt[i] = expiredAt
			}
			return
		}
	}
	t.banSupplier = append(t.banSupplier, supplier)
	t.expiredAt = append(t.expiredAt, expiredAt)
}

func (t *TokenManager) popBanSupplierIfAllBan() {
	var hasValidToken bool
	for _, token := range t.tokens {
		if t.validToken(token) {
			hasValidToken = true
			break
		}
	}
	if !hasValidToken && len(t.banSupplier) > 0 {
		t.banSupplier = t.banSupplier[1:]
		t.expiredAt = t.expiredAt[1:]
	}
}

func (t *TokenManager) validToken(token TokenWithModel) bool {
	for _, supplier := range t.banSupplier {
		if token.GetSupplier() == supplier {
			return false
		}
	}
	return true
}

func (t *TokenManager) tidy() {
	t.lock.Lock()
	defer t.lock.Unlock()
	for i := len(t.expiredAt) - 1; i >= 0; i-- {
		if t.expiredAt[i].Before(time.Now()) {
			t.banSupplier = append(t.banSupplier[:i], t.banSupplier[i+1:]...)
			t.expiredAt = append(t.expiredAt[:i], t.expiredAt[i+1:]...)
		}
	}
}

func tokenFromConfig(req config.Request) (TokenWithModel, error) {
	supplier := consts.ModelSupplier(req.Supplier)
	var value string
	switch supplier {
	case consts.Geek:
		switch req.TokenName {
		case "low_price_token":
			value = config.GConfig.Geek.LowPriceToken
		case "balance_token":
			value = config.GConfig.Geek.BalanceToken
		case "high_available_token":
			value = config.GConfig.Geek.HighAvailableToken
		}
	case consts.Tuzi:
		switch req.TokenName {
		case "default_channel_token":
			value = config.GConfig.Tuzi.DefaultChannelToken
		case "openai_channel_token":
			value = config.GConfig.Tuzi.OpenaiChannelToken
		}
	case consts.V3:
		if req.TokenName == "token" {
			value = config.GConfig.V3.Token
		}
	}
	if value == "" {
		return TokenWithModel{}, fmt.Errorf("request_order: no token %q configured for supplier %q", req.TokenName, req.Supplier)
	}
	return TokenWithModel{
		Token: Token{Token: value, Desc: req.TokenName, Supplier: supplier},
		Model: req.Model,
	}, nil
}
