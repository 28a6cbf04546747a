package providers

import (
	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/config"
	"github.com/elephoto/elephoto-server/internal/logger"
	"github.com/elephoto/elephoto-server/internal/payment"
)

// ProvideProcessor provides the Stripe Checkout client.
func ProvideProcessor(i do.Injector) (payment.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, checkout will fail until it is configured")
	}

	return payment.NewStripeProcessor(cfg.Stripe.SecretKey, log.Component("stripe")), nil
}

// ProvideVerifier provides the webhook signature verifier.
func ProvideVerifier(i do.Injector) (payment.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET not set, every payment notification will be rejected")
	}

	return payment.NewStripeVerifier(cfg.Stripe.WebhookSecret), nil
}
