package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stylo/state"
	"stylo/surface"
)

// Inject is the action of inject command: it renders source into existing
// markup the way a browser instance would, rehydrating style nodes already
// present there.
func Inject(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	src, markup := cmd.Args().Get(0), cmd.Args().Get(1)
	if len(src) == 0 || len(markup) == 0 {
		return errors.New("both stylesheet source and document have to be specified")
	}
	dst := cmd.Args().Get(2)
	if cmd.Args().Len() > 3 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[3:]))
	}
	env.Overwrite = cmd.Bool("overwrite")

	out, err := inject(ctx, src, markup, env, log)
	if err != nil {
		return err
	}

	if len(dst) == 0 {
		_, err = os.Stdout.WriteString(out)
		return err
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if err := checkOutput(dst, env, log); err != nil {
		return err
	}
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}
	log.Info("Styles injected", zap.String("to", dst))
	return nil
}

func inject(ctx context.Context, src, markup string, env *state.LocalEnv, log *zap.Logger) (string, error) {
	source, err := Load(src)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(markup)
	if err != nil {
		return "", fmt.Errorf("unable to read document: %w", err)
	}
	doc, err := surface.Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("unable to parse document (%s): %w", markup, err)
	}

	in, err := env.NewInstance(doc)
	if err != nil {
		return "", fmt.Errorf("unable to create style instance: %w", err)
	}
	before := in.Cache().Stats()
	if _, err := Render(ctx, in, source, log); err != nil {
		return "", err
	}
	after := in.Cache().Stats()

	log.Debug("Document styled",
		zap.Uint64("inserted", after.Misses-before.Misses),
		zap.Uint64("already present", after.Hits-before.Hits),
		zap.Int("nodes", len(in.Cache().Sheet().Nodes())))
	if env.Debug {
		log.Debug("Surface state", zap.String("dump", doc.Dump()))
		log.Debug("Cache state", zap.String("dump", in.Cache().Dump()))
	}
	return doc.Render(), nil
}
