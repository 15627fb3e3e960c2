package schedules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/scheduler"
	"github.com/julianstephens/checkin/internal/tracker"
)

// ValidateCmd checks a template's schedule and lists every problem.
type ValidateCmd struct {
	File string `arg:"" help:"Template JSON file." type:"existingfile"`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	var tmpl models.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := scheduler.ValidateConfig(tmpl.Schedule); err != nil {
		ctx.Println(cli.ErrorStyle.Render("❌ Schedule is invalid"))
		var cfgErr *scheduler.ConfigError
		if errors.As(err, &cfgErr) {
			for _, p := range cfgErr.Problems {
				ctx.Printf("  - %s\n", p)
			}
		}
		return err
	}

	ctx.Printf("%s Schedule of %q is valid (%s)\n", cli.OKStyle.Render("✓"), tmpl.ID, tmpl.Schedule.Frequency)
	return nil
}

// WindowsCmd prints the upcoming windows of a template.
type WindowsCmd struct {
	File  string `arg:"" help:"Template JSON file." type:"existingfile"`
	At    string `help:"Reference time (RFC 3339 or 'YYYY-MM-DD HH:MM'); defaults to now."`
	Count int    `help:"Number of windows to print." default:"5"`
}

func (c *WindowsCmd) Run(ctx *cli.Context) error {
	tmpl, err := cli.LoadTemplate(c.File)
	if err != nil {
		return err
	}
	at, err := ctx.ParseAt(c.At)
	if err != nil {
		return err
	}

	windows, err := ctx.Calculator.Windows(tmpl.Schedule, at, c.Count)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Windows of %s (%s)", displayName(tmpl), tmpl.Schedule.Frequency)))
	for i, w := range windows {
		marker := " "
		if w.Contains(at) {
			marker = cli.OKStyle.Render("●")
		}
		ctx.Printf("%s %d. %s\n", marker, i+1, cli.FormatWindow(w))
	}
	return nil
}

// StatusCmd derives a client's current instance status for a template.
type StatusCmd struct {
	File   string `arg:"" help:"Template JSON file." type:"existingfile"`
	Client string `help:"Client id." required:""`
	At     string `help:"Reference time (RFC 3339 or 'YYYY-MM-DD HH:MM'); defaults to now."`
}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	tmpl, err := cli.LoadTemplate(c.File)
	if err != nil {
		return err
	}
	at, err := ctx.ParseAt(c.At)
	if err != nil {
		return err
	}

	inst, err := ctx.CurrentInstance(tmpl, c.Client, at)
	if err != nil {
		return err
	}
	view := tracker.Derive(inst, at)

	ctx.Println(cli.TitleStyle.Render(displayName(tmpl)))
	ctx.Printf("  Instance:  %s\n", inst.ID)
	ctx.Printf("  Window:    %s\n", cli.FormatWindow(inst.Window))
	ctx.Printf("  Status:    %s\n", cli.StatusBadge(view.Status))
	if view.Late {
		ctx.Printf("  %s\n", cli.WarnStyle.Render("Submitted late"))
	}
	if inst.Submission != nil {
		ctx.Printf("  Submitted: %s\n", inst.Submission.SubmittedAt.In(ctx.Location()).Format("2006-01-02 15:04"))
	}
	if inst.Review != nil {
		ctx.Printf("  Reviewed:  %s by %s\n", inst.Review.ReviewedAt.In(ctx.Location()).Format("2006-01-02 15:04"), inst.Review.Reviewer)
	}
	if inst.Submission == nil && ctx.Tracker.AcceptsSubmission(inst, at) {
		ctx.Printf("  %s\n", cli.MutedStyle.Render("Fill it in with: checkin fill "+c.File+" --client "+c.Client))
	}
	return nil
}

func displayName(tmpl models.Template) string {
	if tmpl.Name != "" {
		return tmpl.Name
	}
	return tmpl.ID
}
