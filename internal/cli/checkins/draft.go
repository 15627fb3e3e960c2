package checkins

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/validation"
)

// DraftShowCmd prints a persisted draft and its validation report.
type DraftShowCmd struct {
	Owner string `arg:"" help:"Draft owner key (CLIENT:TEMPLATE)."`
	JSON  bool   `help:"Print the raw payload as JSON."`
}

func (c *DraftShowCmd) Run(ctx *cli.Context) error {
	d, err := ctx.Store.GetDraft(c.Owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no draft for %s", c.Owner)
		}
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(d.Payload, "", "  ")
		if err != nil {
			return err
		}
		ctx.Println(string(data))
		return nil
	}

	p := d.Payload
	ctx.Println(cli.TitleStyle.Render("Draft " + d.OwnerKey))
	ctx.Printf("  Last saved:   %s\n", d.LastSavedAt.In(ctx.Location()).Format("2006-01-02 15:04:05"))
	ctx.Printf("  Metrics:      %d\n", len(p.Metrics))
	ctx.Printf("  Goals:        %d\n", len(p.Goals))
	ctx.Printf("  Achievements: %d\n", len(p.Achievements))
	ctx.Printf("  Challenges:   %d\n", len(p.Challenges))
	ctx.Printf("  Questions:    %d\n", len(p.Questions))
	ctx.Println()

	result := validation.New().ValidateAll(p)
	if result.HasErrors() {
		ctx.Println(cli.WarnStyle.Render(result.FormatReport()))
	} else {
		ctx.Println(cli.OKStyle.Render(result.FormatReport()))
	}
	return nil
}

// DraftClearCmd deletes a persisted draft.
type DraftClearCmd struct {
	Owner string `arg:"" help:"Draft owner key (CLIENT:TEMPLATE)."`
}

func (c *DraftClearCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.DeleteDraft(c.Owner); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	ctx.Printf("Cleared draft %s\n", c.Owner)
	return nil
}
