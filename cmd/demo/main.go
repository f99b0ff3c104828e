// Command demo opens a window and spins a lit model in front of a camera. Escape quits, holding
// Space slows the rotation down.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/Carmen-Shannon/cmx-go/engine"
	"github.com/Carmen-Shannon/cmx-go/engine/components"
	"github.com/Carmen-Shannon/cmx-go/engine/config"
	"github.com/Carmen-Shannon/cmx-go/engine/input"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

// GLFW and the surface must live on the main OS thread.
func init() {
	runtime.LockOSThread()
}

const modelAsset = "model"

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "engine configuration file")
		profiling  = flag.String("profile", "", "write a pprof profile: cpu|mem")
		saveInput  = flag.Bool("save-input", false, "write the default input bindings and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	switch *profiling {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		log.Fatal("unknown profile mode", zap.String("mode", *profiling))
	}

	eng, err := engine.NewEngine(engine.WithConfig(cfg))
	if err != nil {
		log.Fatal("engine setup failed", zap.Error(err))
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Error("shutdown incomplete", zap.Error(err))
		}
	}()

	in := eng.Input()
	in.AddInput("exit", input.NewButtonAction(input.Released, input.Key(common.KeyEsc)))
	in.AddInput("slowdown toggle", input.NewButtonAction(input.Toggle, input.Key(common.KeySpace)))
	if *saveInput {
		if err := in.Save(); err != nil {
			log.Error("input bindings not saved", zap.Error(err))
		}
		return
	}

	if err := eng.Load(); err != nil {
		log.Fatal("load failed", zap.Error(err))
	}
	if len(eng.Scene().Actors()) == 0 {
		if err := populate(eng.Scene()); err != nil {
			log.Fatal("scene setup failed", zap.Error(err))
		}
	}

	if err := in.BindButton("exit", func(float32, int) { eng.Quit() }); err != nil {
		log.Fatal("bind failed", zap.Error(err))
	}
	rotators := scene.ComponentsByType[*components.RotatorComponent](eng.Scene())
	err = in.BindButton("slowdown toggle", func(_ float32, status int) {
		multiplier := float32(1)
		if status == 1 {
			multiplier = 0.1
		}
		for _, r := range rotators {
			r.SetMultiplier(multiplier)
		}
	})
	if err != nil {
		log.Fatal("bind failed", zap.Error(err))
	}

	eng.Run()
}

// populate builds the default scene: a rotating model and a camera looking at it.
func populate(s scene.Scene) error {
	rotating := scene.NewBaseActor("RotatingActor")
	mesh := rotating.AttachComponent(components.NewMeshComponent()).(*components.MeshComponent)
	rotating.AttachComponent(components.NewRotatorComponent())
	s.AddActor(rotating)
	if err := mesh.SetModelByName(modelAsset); err != nil {
		return err
	}

	eye := scene.NewBaseActor("Eye")
	eye.Transform().Translation = mgl32.Vec3{0, 1, 3}
	eye.Transform().Rotation = mgl32.Vec3{-0.3, 0, 0}
	cam := eye.AttachComponent(components.NewCameraComponent()).(*components.CameraComponent)
	s.AddActor(eye)
	s.SetCamera(cam)
	return nil
}
