// Package main is a command line tool that loads a dual-arm robot configuration, binds it against a
// kinematics-only scene and reports what it found.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/config"
	"github.com/dualarm/simcore/logging"
	"github.com/dualarm/simcore/physics/fake"
	"github.com/dualarm/simcore/robot"
	"github.com/dualarm/simcore/spatialmath"
)

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagLogLevel = "log-level"
	flagSettle   = "settle"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	var logger logging.Logger
	return &cli.App{
		Name:      "simcore",
		Usage:     "inspect dual-arm robot configurations",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "load the robot file at `FILE`",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level: debug, info, warn or error",
				Value: "info",
			},
		},
		Before: func(c *cli.Context) error {
			logger = logging.NewLogger("simcore")
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
				return nil
			}
			level, err := logging.LevelFromString(c.String(flagLogLevel))
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			//nolint:errcheck
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "describe",
				Usage: "print the joints and links bound to each arm",
				Action: func(c *cli.Context) error {
					r, err := load(c, logger)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, r.Describe())
				},
			},
			{
				Name:  "poses",
				Usage: "home both arms and print their end effector poses",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagSettle,
						Usage: "physics steps to take after homing, at least 1",
						Value: 1,
					},
				},
				Action: func(c *cli.Context) error {
					settle := c.Int(flagSettle)
					if settle <= 0 {
						return errors.Errorf("--%s must be positive, got %d", flagSettle, settle)
					}
					r, err := load(c, logger)
					if err != nil {
						return err
					}
					r.HomeAll()
					outcome := r.SettleGripper(c.Context, arm.Left, settle)
					if !outcome.OK() {
						return errors.New(outcome.Reason)
					}
					r.CaptureOriginPoses()
					return printJSON(c.App.Writer, poses(r))
				},
			},
		},
	}
}

func load(c *cli.Context, logger logging.Logger) (*robot.Robot, error) {
	cfg, err := config.LoadRobotConfig(c.String(flagConfig), logger)
	if err != nil {
		return nil, err
	}
	return robot.New(fake.NewScene(), cfg, logger.Sublogger("robot"))
}

type armPoses struct {
	Arm          string    `json:"arm"`
	Joints       []float64 `json:"joints"`
	Flange       []float64 `json:"flange"`
	Planning     []float64 `json:"planning"`
	Tool         []float64 `json:"tool"`
	BaseRelative []float64 `json:"base_relative"`
}

func poses(r *robot.Robot) []armPoses {
	out := make([]armPoses, 0, 2)
	for _, tag := range arm.Tags() {
		out = append(out, armPoses{
			Arm:          tag.String(),
			Joints:       r.MeasuredJointState(tag).Position,
			Flange:       spatialmath.PoseToSlice(r.FlangePose(tag)),
			Planning:     spatialmath.PoseToSlice(r.PlanningPose(tag)),
			Tool:         spatialmath.PoseToSlice(r.ToolPose(tag)),
			BaseRelative: spatialmath.PoseToSlice(r.BaseRelativePose(tag)),
		})
	}
	return out
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

