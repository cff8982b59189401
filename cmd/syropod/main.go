// Command syropod is the process entry point: it wires Model, ParameterSet
// and the four pipeline controllers to a real Dynamixel bus and sixaxis
// controller, then drives StateController.Tick on a fixed-period ticker.
// Adapted from the teacher's main/main.go (serial open, dynamixel network,
// signal-based graceful shutdown, ticker loop) and main/bot.go
// (NewHexapodFromPortName's "open everything, then ping" boot order).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adammck/dynamixel/network"
	"github.com/jacobsa/go-serial/serial"

	"github.com/deeplearning2012/syropod-highlevel-controller/gait"
	"github.com/deeplearning2012/syropod-highlevel-controller/impedancecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/internal/actuator"
	"github.com/deeplearning2012/syropod-highlevel-controller/internal/sensor"
	"github.com/deeplearning2012/syropod-highlevel-controller/internal/telemetry"
	"github.com/deeplearning2012/syropod-highlevel-controller/internal/teleop"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/deeplearning2012/syropod-highlevel-controller/posecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/statecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/walkcontroller"
)

var (
	portName       = flag.String("port", "/dev/ttyACM0", "the serial port path")
	controllerPath = flag.String("controller", "/dev/input/event0", "the input device path for the sixaxis controller")
	configPath     = flag.String("config", params.DefaultConfigFile, "path to the parameter configuration file")
	debug          = flag.Bool("debug", false, "show serial traffic")
)

func main() {
	flag.Parse()

	p, err := params.LoadFrom(*configPath)
	if err != nil {
		fmt.Printf("error loading parameters: %s\n", err)
		os.Exit(1)
	}

	m, err := model.Build(p)
	if err != nil {
		fmt.Printf("error building model: %s\n", err)
		os.Exit(1)
	}

	g := gait.Make(p.GaitType, m.NumLegs())
	walk, err := walkcontroller.New(m, p, g)
	if err != nil {
		fmt.Printf("error building walk controller: %s\n", err)
		os.Exit(1)
	}
	pose := posecontroller.New(m, p)
	impedance := impedancecontroller.New(m, p)

	fmt.Println("opening serial port...")
	sOpts := serial.OpenOptions{
		PortName:              *portName,
		BaudRate:              1000000,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}
	sp, err := serial.Open(sOpts)
	if err != nil {
		fmt.Printf("error opening serial port: %s\n", err)
		os.Exit(1)
	}
	defer sp.Close()

	net := network.New(sp)
	net.Debug = *debug
	net.Flush()

	fmt.Println("arming servos...")
	act, err := actuator.New(m, net, int(p.InterfaceSetupSpeed))
	if err != nil {
		fmt.Printf("error arming servos: %s\n", err)
		os.Exit(1)
	}
	defer act.Shutdown()

	tel := telemetry.New()

	sc := statecontroller.New(m, p, walk, pose, impedance, act, tel)

	sens := sensor.New(m, p, sc)
	fmt.Println("reading joint positions...")
	names, positions, err := act.PresentPositions(m)
	if err != nil {
		fmt.Printf("error reading joint positions: %s\n", err)
		os.Exit(1)
	}
	sens.ApplyJointStates(names, positions, nil, nil)

	fmt.Println("opening controller...")
	f, err := os.Open(*controllerPath)
	if err != nil {
		fmt.Printf("error opening controller: %s\n", err)
		os.Exit(1)
	}
	defer f.Close()
	input := teleop.New(f, sc)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	shuttingDown := false
	go func() {
		<-shutdown
		fmt.Println("caught signal, shutting down...")
		sc.SetDesiredSystemState(statecontroller.Off)
		shuttingDown = true
	}()

	period := time.Duration(p.TimeDelta * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	shutdownDeadline := time.Time{}
	fmt.Println("starting loop...")
	for now := range ticker.C {
		if err := input.Tick(now); err != nil {
			fmt.Printf("teleop tick error: %s\n", err)
		}
		if err := sc.Tick(now); err != nil {
			fmt.Printf("tick error: %s\n", err)
		}

		if shuttingDown {
			if shutdownDeadline.IsZero() {
				shutdownDeadline = now.Add(3 * time.Second)
			}
			if sc.State == statecontroller.Off || now.After(shutdownDeadline) {
				fmt.Println("done, exiting")
				return
			}
		}
	}
}
