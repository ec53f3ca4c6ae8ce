package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"chosenoffset.com/shadowcast/internal/core/shadows"
	"chosenoffset.com/shadowcast/internal/game"
	ebitenrender "chosenoffset.com/shadowcast/internal/render/ebiten"
	"chosenoffset.com/shadowcast/internal/render/lighting"
	"chosenoffset.com/shadowcast/internal/render/snapshot"
	"chosenoffset.com/shadowcast/internal/scene"
	"chosenoffset.com/shadowcast/internal/vizserver"
)

const cacheCapacity = 1024

func main() {
	app := makeapp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var sceneFlag = cli.StringFlag{Name: "scene", Value: "", Usage: "Scene file (.json, .yaml); the built-in demo scene when empty"}

func makeapp() *cli.App {
	app := cli.NewApp()
	app.Name = "shadowcast"
	app.Usage = "2D visibility polygons for point lights among segment obstacles"

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "Open the interactive demo window",
			Flags: []cli.Flag{sceneFlag},
			Action: func(c *cli.Context) error {
				return runAction(c.String("scene"))
			},
		},
		{
			Name:  "snapshot",
			Usage: "Render the lit scene to a PNG",
			Flags: []cli.Flag{
				sceneFlag,
				cli.StringFlag{Name: "out", Value: "shadowcast.png", Usage: "Destination PNG file"},
				cli.Float64Flag{Name: "cursor-x", Value: 300, Usage: "Cursor X for cursor-following lights"},
				cli.Float64Flag{Name: "cursor-y", Value: 300, Usage: "Cursor Y for cursor-following lights"},
				cli.BoolFlag{Name: "no-outlines", Usage: "Do not outline obstacles"},
			},
			Action: func(c *cli.Context) error {
				cursor := shadows.Point{X: c.Float64("cursor-x"), Y: c.Float64("cursor-y")}
				return snapshotAction(c.String("scene"), c.String("out"), cursor, !c.Bool("no-outlines"))
			},
		},
		{
			Name:  "serve",
			Usage: "Serve the scene and its visibility polygons over HTTP and websocket",
			Flags: []cli.Flag{
				sceneFlag,
				cli.StringFlag{Name: "addr", Value: ":8080", Usage: "Listen address"},
			},
			Action: func(c *cli.Context) error {
				return serveAction(c.String("scene"), c.String("addr"))
			},
		},
		{
			Name:  "inspect",
			Usage: "Print each light's exclusions and polygon",
			Flags: []cli.Flag{
				sceneFlag,
				cli.StringFlag{Name: "light", Value: "", Usage: "Only this light"},
				cli.Float64Flag{Name: "cursor-x", Value: 300, Usage: "Cursor X for cursor-following lights"},
				cli.Float64Flag{Name: "cursor-y", Value: 300, Usage: "Cursor Y for cursor-following lights"},
				cli.BoolFlag{Name: "dump", Usage: "Dump every polygon vertex"},
			},
			Action: func(c *cli.Context) error {
				cursor := shadows.Point{X: c.Float64("cursor-x"), Y: c.Float64("cursor-y")}
				return inspectAction(c.String("scene"), c.String("light"), cursor, c.Bool("dump"))
			},
		},
		{
			Name:  "init",
			Usage: "Write the demo scene to a file as a starting point",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "out", Value: "scene.yaml", Usage: "Destination file (.json, .yaml)"},
			},
			Action: func(c *cli.Context) error {
				return initAction(c.String("out"))
			},
		},
	}

	return app
}

func loadScene(path string) (*scene.Context, error) {
	cfg := scene.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = scene.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	sc, err := scene.NewContext(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "invalid scene")
	}
	return sc, nil
}

func runAction(scenePath string) error {
	sc, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	mgr, err := lighting.NewManagerFromScene(sc, shadows.NewCache(shadows.DefaultCaster, cacheCapacity))
	if err != nil {
		return errors.Wrap(err, "failed to set up lights")
	}

	// Initialize the renderer backend (ebiten)
	renderer := ebitenrender.NewRenderer()
	inputMgr := ebitenrender.NewInputManager()
	engine := ebitenrender.NewEngine()

	g := game.New(sc, renderer, inputMgr, mgr)

	engine.SetWindowSize(g.ScreenWidth, g.ScreenHeight)
	engine.SetWindowTitle("shadowcast")
	engine.SetWindowResizable(true)

	log.Println("Starting demo...")
	if err := engine.RunGame(g); err != nil && !errors.Is(err, game.ErrQuit) {
		return err
	}
	return nil
}

func litPolygons(sc *scene.Context, cursor shadows.Point) ([]lighting.LitPolygon, error) {
	mgr, err := lighting.NewManagerFromScene(sc, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up lights")
	}
	if err := mgr.Update(context.Background(), cursor); err != nil {
		return nil, errors.Wrap(err, "failed to cast lights")
	}
	return mgr.Polygons(), nil
}

func snapshotAction(scenePath, out string, cursor shadows.Point, outlines bool) error {
	sc, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	lights, err := litPolygons(sc, cursor)
	if err != nil {
		return err
	}

	opts := snapshot.DefaultOptions()
	opts.Outlines = outlines
	if err := snapshot.SavePNG(out, sc, lights, opts); err != nil {
		return errors.Wrap(err, "failed to write snapshot")
	}
	log.Printf("Wrote %s", out)
	return nil
}

func serveAction(scenePath, addr string) error {
	sc, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	viz := vizserver.NewVizService(addr, sc, shadows.NewCache(shadows.DefaultCaster, cacheCapacity))
	return viz.ListenAndServe()
}

func inspectAction(scenePath, only string, cursor shadows.Point, dump bool) error {
	sc, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	if only != "" {
		if _, ok := sc.Light(only); !ok {
			return errors.Errorf("unknown light %q", only)
		}
	}

	fmt.Printf("scene %.0fx%.0f: %d polygons, %d segments\n", sc.Config.Width, sc.Config.Height, len(sc.Polygons), sc.Segments.Len())
	for _, l := range sc.Lights {
		if only != "" && l.Config.Name != only {
			continue
		}
		origin := l.Origin
		if l.Config.FollowCursor {
			origin = cursor
		}
		poly := shadows.Compute(origin, l.View)
		fmt.Printf("%-12s origin=(%.1f, %.1f) excludes=%v segments=%d vertices=%d area=%.1f\n",
			l.Config.Name, origin.X, origin.Y, l.Excluded, l.View.Len(), len(poly), poly.Area())
		if dump {
			spew.Dump(poly)
		}
	}
	return nil
}

func initAction(out string) error {
	data, err := scene.DefaultConfig().Marshal(filepath.Ext(out))
	if err != nil {
		return errors.Wrap(err, "failed to encode scene")
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", out)
	}
	log.Printf("Wrote %s", out)
	return nil
}
