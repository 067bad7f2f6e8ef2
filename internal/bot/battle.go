package bot

import (
	"context"
	"fmt"
	"image"

	"jordanella.com/battlefarm-go/internal/actions"
	"jordanella.com/battlefarm-go/internal/events"
	"jordanella.com/battlefarm-go/pkg/templates"
)

// checkInBattle captures a fresh frame and looks for the battle indicator
func (b *Bot) checkInBattle(ctx context.Context) (bool, error) {
	match, err := b.locate(ctx, templates.InBattle, true)
	if err != nil {
		return false, err
	}
	return match.Found, nil
}

// handleBattle creates a troop and, every BattleCheckEvery taps, checks
// whether the battle has ended
func (b *Bot) handleBattle(ctx context.Context) error {
	b.state.BattleCount++
	if err := b.actuator.Tap(ctx, b.config.Layout.FirstTroop); err != nil {
		return fmt.Errorf("create troop: %w", err)
	}

	if b.state.BattleCount < b.config.BattleCheckEvery {
		return nil
	}
	b.state.BattleCount = 0

	closeButton, err := b.locate(ctx, templates.CloseBattle, true)
	if err != nil {
		return fmt.Errorf("close battle check: %w", err)
	}

	indicator, err := b.checkInBattle(ctx)
	if err != nil {
		return fmt.Errorf("battle indicator check: %w", err)
	}
	b.publish(events.NewBattleCheckedEvent(closeButton.Found, indicator, b.state.LoopCount))

	if !closeButton.Found {
		return nil
	}

	if err := b.exitBattle(ctx, closeButton.Center); err != nil {
		return err
	}
	b.setInBattle(false)
	return nil
}

// exitBattle taps the close button until the market menu shows, then clears
// a stuck prompt if one is up
func (b *Bot) exitBattle(ctx context.Context, closeButton image.Point) error {
	attempts, err := actions.RetryUntil(ctx, b.retryPolicy(b.config.Timing.ExitBattleDelay),
		func(ctx context.Context) error {
			return b.actuator.Tap(ctx, closeButton)
		},
		b.checkOnMenu,
	)
	if err != nil {
		return fmt.Errorf("exit battle after %d taps: %w", attempts, err)
	}

	b.logger.InfoWithContext("Battle closed", map[string]interface{}{"taps": attempts})
	b.publish(events.NewBattleExitedEvent(attempts, b.state.LoopCount))

	return b.dismissStuck(ctx)
}
