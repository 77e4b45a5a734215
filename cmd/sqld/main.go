package main

import (
	"flag"
	"os"

	"go.uber.org/zap"
)

func main() {
	diskPath := flag.String("data", "", "path to a bbolt data file; empty uses the in-memory storage engine")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	opts := []Option{WithLogger(logger), WithIO(os.Stdin, os.Stdout)}
	if *diskPath != "" {
		opts = append(opts, WithDiskStorage(*diskPath))
	}

	srv, err := NewServer(opts...)
	if err != nil {
		logger.Fatal("sqld: failed to start", zap.Error(err))
	}
	if err := srv.Run(); err != nil {
		logger.Fatal("sqld: exited", zap.Error(err))
	}
}
