package db

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
)

// SupportedVersions is the range of pgagent extension versions whose schema
// the statements are written for.
const SupportedVersions = ">= 3.4, < 5"

const versionQuery = "select extversion as version from pg_extension where extname = 'pgagent'"

// Fetcher runs a query and returns its rows.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]Row, error)
}

var supported = mustConstraint(SupportedVersions)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(fmt.Sprintf("db: bad version constraint %q: %v", s, err))
	}
	return c
}

// CheckVersion reads the installed pgagent extension version and fails when it is
// missing or unsupported, unless ignore is set, in which case it only warns.
func CheckVersion(ctx context.Context, f Fetcher, ignore bool, log *zap.SugaredLogger) (string, error) {
	log = logger.OrNop(log)
	rows, err := f.Fetch(ctx, versionQuery)
	if err != nil {
		return "", errors.Wrap(err, "failed to read pgagent version")
	}

	var raw string
	if len(rows) > 0 {
		raw, _ = rows[0]["version"].(string)
	}

	err = checkVersion(raw)
	if err == nil {
		log.Debugw("pgagent version supported", logger.FieldVersion, raw)
		return raw, nil
	}
	if ignore {
		log.Warnw("Continuing with unsupported pgagent version",
			logger.FieldVersion, raw,
			logger.FieldError, err)
		return raw, nil
	}
	return raw, errors.WithHint(err, "use --ignore-version to try anyway")
}

func checkVersion(raw string) error {
	if raw == "" {
		return errors.Mark(errors.New("pgagent extension is not installed"), errors.ErrUnsupportedVersion)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "cannot parse pgagent version %q", raw), errors.ErrUnsupportedVersion)
	}
	if !supported.Check(v) {
		return errors.Mark(
			errors.Newf("pgagent version %s is not supported (supported: %s)", raw, SupportedVersions),
			errors.ErrUnsupportedVersion,
		)
	}
	return nil
}
