package main

import (
	"fmt"
	"os"
	"time"

	"tradecontrol/src/logging"
	"tradecontrol/src/server"

	logger "github.com/sirupsen/logrus"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	logging.Setup(logging.GetConfig())
}

func main() {
	SetupLogger()
	defer handlePanic()

	if err := server.Run(); err != nil {
		logger.WithError(err).Fatal("Failed to start control plane")
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
