package checkins

import (
	"errors"
	"fmt"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/draft"
	"github.com/julianstephens/checkin/internal/lock"
	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/session"
	"github.com/julianstephens/checkin/internal/tui"
)

// FillCmd opens the interactive form of the client's current check-in.
type FillCmd struct {
	File   string `arg:"" help:"Template JSON file." type:"existingfile"`
	Client string `help:"Client id." required:""`
}

// runForm is replaced in tests.
var runForm = tui.Run

func (c *FillCmd) Run(ctx *cli.Context) error {
	tmpl, err := cli.LoadTemplate(c.File)
	if err != nil {
		return err
	}
	inst, err := ctx.CurrentInstance(tmpl, c.Client, ctx.Now())
	if err != nil {
		return err
	}

	ownerKey := models.OwnerKey(c.Client, tmpl.ID)
	l, holder, err := lock.Acquire(ctx.ConfigDir, ownerKey)
	if err != nil {
		logger.Warn("Could not take the draft lock", "owner", ownerKey, "error", err)
	} else {
		defer func() {
			if err := l.Release(); err != nil {
				logger.Warn("Failed to release draft lock", "owner", ownerKey, "error", err)
			}
		}()
	}
	if holder != nil {
		ctx.Println(cli.WarnStyle.Render(fmt.Sprintf(
			"⚠ This check-in is already open in another window (pid %d). Edits there and here will overwrite each other.", holder.PID)))
	}

	drafts := draft.New(ctx.Store, draft.Options{Clock: ctx.Clock, Location: ctx.Location()})
	defer drafts.Close()
	drafts.OnStatus(func(owner string, status constants.SaveStatus) {
		logger.Debug("Draft status changed", "owner", owner, "status", status)
	})

	s, err := session.Open(session.Deps{
		Tracker:   ctx.Tracker,
		Drafts:    drafts,
		Submitter: &session.StoreSubmitter{Store: ctx.Store, Clock: ctx.Clock},
		Clock:     ctx.Clock,
	}, inst, cli.InitialPayload(tmpl))
	if err != nil {
		if errors.Is(err, session.ErrNotOpen) {
			return fmt.Errorf("%w; next window: %s", err, cli.FormatWindow(inst.Window))
		}
		return err
	}
	defer s.Close()

	outcome, err := runForm(s)
	if err != nil {
		return err
	}
	switch outcome {
	case tui.OutcomeSubmitted:
		ctx.Println(cli.OKStyle.Render("✓ Check-in submitted"))
	default:
		ctx.Printf("Draft saved (%s). Run the same command to continue today.\n", cli.SaveBadge(s.SaveStatus()))
	}
	return nil
}
