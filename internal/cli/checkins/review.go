package checkins

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
)

// ReviewAddCmd records a coach's review of a submitted instance.
type ReviewAddCmd struct {
	Instance string `arg:"" help:"Instance id."`
	Reviewer string `help:"Reviewer name." required:""`
	Notes    string `help:"Review notes."`
}

func (c *ReviewAddCmd) Run(ctx *cli.Context) error {
	if strings.TrimSpace(c.Reviewer) == "" {
		return errors.New("reviewer cannot be empty")
	}

	err := ctx.Store.AddReview(models.Review{
		InstanceID: c.Instance,
		Reviewer:   c.Reviewer,
		Notes:      c.Notes,
		ReviewedAt: ctx.Now(),
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("instance %s has no submission to review", c.Instance)
	case errors.Is(err, storage.ErrAlreadyExists):
		return fmt.Errorf("instance %s is already reviewed", c.Instance)
	case err != nil:
		return err
	}

	ctx.Println(cli.OKStyle.Render("✓ Review recorded for " + c.Instance))
	return nil
}
