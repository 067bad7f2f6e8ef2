package bot

import (
	"context"
	"fmt"

	"jordanella.com/battlefarm-go/internal/actions"
	"jordanella.com/battlefarm-go/internal/events"
	"jordanella.com/battlefarm-go/pkg/templates"
)

// checkOnMenu captures a fresh frame and looks for the market menu button
func (b *Bot) checkOnMenu(ctx context.Context) (bool, error) {
	match, err := b.locate(ctx, templates.MarketMenu, true)
	if err != nil {
		return false, err
	}
	return match.Found, nil
}

// dismissStuck taps the "are you stuck" prompt when the current frame shows it
func (b *Bot) dismissStuck(ctx context.Context) error {
	match, err := b.locate(ctx, templates.AreYouStuck, false)
	if err != nil {
		return fmt.Errorf("stuck prompt check: %w", err)
	}
	if !match.Found {
		return nil
	}

	b.logger.Info("Dismissing stuck prompt")
	if err := b.actuator.Tap(ctx, match.Center); err != nil {
		return fmt.Errorf("dismiss stuck prompt: %w", err)
	}
	return nil
}

func (b *Bot) handleMenu(ctx context.Context) error {
	if err := b.dismissStuck(ctx); err != nil {
		return err
	}
	return b.upgradeAndStartBattle(ctx)
}

// upgradeAndStartBattle buys production upgrades, opens the battle menu and
// taps start until the battle indicator shows
func (b *Bot) upgradeAndStartBattle(ctx context.Context) error {
	layout := b.config.Layout
	timing := b.config.Timing

	if err := b.actuator.Tap(ctx, layout.UpgradeMenu); err != nil {
		return fmt.Errorf("open upgrade menu: %w", err)
	}
	if err := b.actuator.Sleep(ctx, timing.UpgradeMenuDelay); err != nil {
		return err
	}

	if timing.ProductionTaps > 0 {
		if err := b.actuator.TapSequence(ctx, layout.productionTaps(timing.ProductionTaps), timing.ProductionGap); err != nil {
			return fmt.Errorf("upgrade production: %w", err)
		}
		if err := b.actuator.Sleep(ctx, timing.ProductionGap); err != nil {
			return err
		}
	}

	if err := b.actuator.Sleep(ctx, timing.BattleMenuDelay); err != nil {
		return err
	}
	if err := b.actuator.Tap(ctx, layout.BattleMenu); err != nil {
		return fmt.Errorf("open battle menu: %w", err)
	}

	start, err := b.locate(ctx, templates.StartBattle, true)
	if err != nil {
		return fmt.Errorf("start battle check: %w", err)
	}
	if !start.Found {
		b.logger.Warn("Start battle button not found")
		return nil
	}

	attempts, err := actions.RetryUntil(ctx, b.retryPolicy(timing.StartBattleDelay),
		func(ctx context.Context) error {
			return b.actuator.Tap(ctx, start.Center)
		},
		b.checkInBattle,
	)
	if err != nil {
		return fmt.Errorf("start battle after %d taps: %w", attempts, err)
	}

	b.setInBattle(true)
	b.publish(events.NewBattleEnteredEvent(attempts, b.state.LoopCount))
	return nil
}
