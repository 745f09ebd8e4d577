package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"stylo/config"
	"stylo/persist"
	"stylo/state"
)

// Run is the action of extract command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = env.Cfg.Output.Destination
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")

	_, err = process(ctx, src, dst, env, log)
	return err
}

func process(ctx context.Context, src, dst string, env *state.LocalEnv, log *zap.Logger) (*Manifest, error) {
	defer func(start time.Time) {
		log.Debug("Extraction completed", zap.Duration("elapsed", time.Since(start)), zap.String("source", src))
	}(time.Now())

	source, err := Load(src)
	if err != nil {
		return nil, err
	}

	in, err := env.NewInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create style instance: %w", err)
	}
	m, err := Render(ctx, in, source, log)
	if err != nil {
		return nil, err
	}

	opts := env.Cfg.Output.PersistOptions(m.Key)
	opts.Hash = env.Cfg.Engine.HashFunc()

	var text string
	if env.Cfg.Output.Tag {
		opts.Ext = ".html"
		text, err = in.ExtractTag()
	} else {
		text, err = in.Extract()
	}
	if err != nil {
		return nil, fmt.Errorf("unable to extract styles: %w", err)
	}
	if env.Debug {
		log.Debug("Cache state", zap.String("dump", in.Cache().Dump()))
	}

	name, err := persist.Name(text, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to name output file: %w", err)
	}
	if err := checkOutput(filepath.Join(dst, name), env, log); err != nil {
		return nil, err
	}
	if m.File, _, err = persist.Write(dst, text, opts, log); err != nil {
		return nil, err
	}

	if manifest := strings.TrimSpace(env.Cfg.Output.Manifest); manifest != "" {
		fname := filepath.Join(dst, config.CleanFileName(manifest))
		if err := checkOutput(fname, env, log); err != nil {
			return nil, err
		}
		if err := writeManifest(fname, m); err != nil {
			return nil, err
		}
	}

	log.Info("Styles extracted",
		zap.String("to", filepath.Join(dst, m.File)),
		zap.Int("entries", len(in.Cache().IDs())),
		zap.Int("size", len(text)))
	return m, nil
}

func checkOutput(fname string, env *state.LocalEnv, log *zap.Logger) error {
	if _, err := os.Stat(fname); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", fname)
		}
		log.Warn("Overwriting existing file", zap.String("file", fname))
	} else if !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeManifest(fname string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("unable to marshal manifest: %w", err)
	}
	if err := os.WriteFile(fname, data, 0o644); err != nil {
		return fmt.Errorf("unable to write manifest: %w", err)
	}
	return nil
}
