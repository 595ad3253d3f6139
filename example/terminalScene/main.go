package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	frameTime      = time.Second / 60
	impactFlash    = 12 // frames
	worldHalfSize  = 10.0
	cellsPerMeterX = 3.0
	cellsPerMeterY = 1.5
)

// Scene renders a side view (X right, Y up) of a world in the terminal
type Scene struct {
	screen        tcell.Screen
	width, height int

	world  *impulse.World
	paused bool
	rng    *rand.Rand

	flashes map[*actor.RigidBody]int
	status  string
}

func environmentByName(name string) (impulse.Environment, error) {
	switch name {
	case "earth":
		return impulse.Earth(), nil
	case "moon":
		return impulse.Moon(), nil
	case "mars":
		return impulse.Mars(), nil
	case "jupiter":
		return impulse.Jupiter(), nil
	case "vacuum":
		return impulse.Vacuum(), nil
	}
	return impulse.Environment{}, fmt.Errorf("unknown environment %q", name)
}

func NewScene(environment impulse.Environment, substeps, workers int, multiPoint bool) (*Scene, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}

	world := impulse.NewWorld(environment)
	world.Substeps = substeps
	world.Workers = workers
	world.MultiPointManifolds = multiPoint
	world.Boundary = worldHalfSize
	world.Ground = impulse.FlatGround{Level: 0}

	s := &Scene{
		screen:  screen,
		world:   world,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		flashes: make(map[*actor.RigidBody]int),
	}
	s.width, s.height = screen.Size()

	world.Events.Subscribe(impulse.ON_IMPACT, func(event impulse.Event) {
		e := event.(impulse.ImpactEvent)
		if e.Force > 50 {
			s.flashes[e.Body] = impactFlash
		}
	})
	world.Events.Subscribe(impulse.ON_GROUNDED, func(event impulse.Event) {
		e := event.(impulse.GroundedEvent)
		s.status = fmt.Sprintf("%v grounded on %v", e.Body.Id, e.Source)
	})

	// A static step to land on
	step := actor.NewRigidBody(actor.NewTransformAt(mgl64.Vec3{3, 1, 0}), actor.NewOBB(mgl64.Vec3{2, 1, 2}), actor.BodyTypeStatic, 0)
	step.Id = "step"
	world.AddBody(step)

	return s, nil
}

func (s *Scene) spawn(shape actor.Shape) {
	position := mgl64.Vec3{s.rng.Float64()*16 - 8, 8 + s.rng.Float64(), 0}
	body := actor.NewRigidBody(actor.NewTransformAt(position), shape, actor.BodyTypeDynamic, 500)
	body.Id = fmt.Sprintf("%v#%d", shape.Kind, len(s.world.Bodies))
	body.SetLinearVelocity(mgl64.Vec3{s.rng.Float64()*6 - 3, 0, 0})
	s.world.AddBody(body)
}

// kick throws every dynamic body up
func (s *Scene) kick() {
	for _, body := range s.world.Bodies {
		if body.IsMovable() {
			body.Awake()
			body.ApplyLinearImpulse(mgl64.Vec3{0, 8 * body.Material.GetMass(), 0})
		}
	}
}

// toScreen converts a world position into a terminal cell
func (s *Scene) toScreen(p mgl64.Vec3) (int, int) {
	x := s.width/2 + int(math.Round(p.X()*cellsPerMeterX))
	y := s.height - 2 - int(math.Round(p.Y()*cellsPerMeterY))
	return x, y
}

func (s *Scene) drawBody(body *actor.RigidBody) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	switch {
	case s.flashes[body] > 0:
		style = tcell.StyleDefault.Foreground(tcell.ColorRed)
	case !body.IsMovable():
		style = tcell.StyleDefault.Foreground(tcell.ColorGray)
	case body.IsSleeping:
		style = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	}

	glyph := '#'
	if body.Shape.Kind == actor.ShapeKindSphere {
		glyph = 'o'
	}

	aabb := body.AABB()
	minX, maxY := s.toScreen(aabb.Min)
	maxX, minY := s.toScreen(aabb.Max)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			s.screen.SetContent(x, y, glyph, nil, style)
		}
	}
}

func (s *Scene) draw() {
	s.screen.Clear()

	wall := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	left, bottom := s.toScreen(mgl64.Vec3{-worldHalfSize, 0, 0})
	right, _ := s.toScreen(mgl64.Vec3{worldHalfSize, 0, 0})
	for x := left; x <= right; x++ {
		s.screen.SetContent(x, bottom+1, '=', nil, wall)
	}
	for y := 0; y <= bottom; y++ {
		s.screen.SetContent(left-1, y, '|', nil, wall)
		s.screen.SetContent(right+1, y, '|', nil, wall)
	}

	for _, body := range s.world.Bodies {
		s.drawBody(body)
	}

	help := fmt.Sprintf("[s] sphere [b] box [k] kick [space] pause [q] quit  bodies: %d  %s", len(s.world.Bodies), s.status)
	for i, r := range help {
		s.screen.SetContent(i, 0, r, nil, tcell.StyleDefault)
	}

	s.screen.Show()
}

func (s *Scene) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			s.paused = !s.paused
		case 's':
			s.spawn(actor.NewSphere(0.3 + s.rng.Float64()*0.4))
		case 'b':
			s.spawn(actor.NewOBB(mgl64.Vec3{0.5, 0.5, 0.5}))
		case 'k':
			s.kick()
		}

	case *tcell.EventResize:
		s.width, s.height = s.screen.Size()
		s.screen.Sync()
	}

	return true
}

func (s *Scene) run() {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- s.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}

		case <-ticker.C:
			if !s.paused {
				s.world.Step(frameTime.Seconds())
			}
			for body, frames := range s.flashes {
				if frames <= 1 {
					delete(s.flashes, body)
				} else {
					s.flashes[body] = frames - 1
				}
			}
			s.draw()
		}
	}
}

func main() {
	environmentName := flag.String("env", "earth", "environment: earth, moon, mars, jupiter, vacuum")
	substeps := flag.Int("substeps", 4, "substeps per frame")
	workers := flag.Int("workers", 4, "goroutines used by the detection")
	multiPoint := flag.Bool("multipoint", true, "clip box contacts into up to 4 points")
	flag.Parse()

	environment, err := environmentByName(*environmentName)
	if err != nil {
		log.Fatal(err)
	}

	scene, err := NewScene(environment, *substeps, *workers, *multiPoint)
	if err != nil {
		log.Fatalf("terminal scene: %v", err)
	}
	defer scene.screen.Fini()

	scene.run()
}
