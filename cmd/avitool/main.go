// Command avitool inspects, exports and builds AVI movies, and serves them
// over HTTP for debugging.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/ugparu/goavi/utils/logger"
)

const usage = `usage: avitool <command> [flags]

commands:
  info    print movie configuration and streams
  dump    print the chunk tree
  frame   export one video frame as BMP
  encode  build a movie from still images and raw PCM
  serve   expose movies over HTTP
`

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func logLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(env("AVITOOL_LOG_LEVEL", "warning"))
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}

func main() {
	logger.Init(logLevel())
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "info":
		err = runInfo(args, os.Stdout)
	case "dump":
		err = runDump(args, os.Stdout)
	case "frame":
		err = runFrame(args)
	case "encode":
		err = runEncode(args)
	case "serve":
		err = runServe(args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal(cmd, err.Error())
	}
}
