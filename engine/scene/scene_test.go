package scene

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

type tracer struct {
	BaseComponent
	trace     *[]string
	counter   int
	destroyed bool
}

func newTracer(name string, order int32, trace *[]string) *tracer {
	return &tracer{BaseComponent: NewBaseComponent(name, order), trace: trace}
}

func (p *tracer) Update(dt float32) {
	p.counter++
	if p.trace != nil {
		*p.trace = append(*p.trace, p.Name())
	}
}

func (p *tracer) Destroy() {
	p.destroyed = true
}

type tracerState struct {
	Counter int `yaml:"counter"`
}

func (p *tracer) Save(node *yaml.Node) error {
	return node.Encode(tracerState{Counter: p.counter})
}

func (p *tracer) Load(node *yaml.Node) error {
	var st tracerState
	if err := node.Decode(&st); err != nil {
		return err
	}
	p.counter = st.Counter
	return nil
}

type lens struct {
	BaseComponent
	aspect float32
}

func (l *lens) Projection() mgl32.Mat4           { return mgl32.Ident4() }
func (l *lens) View() mgl32.Mat4                 { return mgl32.Ident4() }
func (l *lens) UpdateAspectRatio(aspect float32) { l.aspect = aspect }

type walker struct {
	*BaseActor
	componentsAtBegin int
	updates           int
	onUpdate          func()
}

func (w *walker) OnBegin() {
	w.componentsAtBegin = len(w.Scene().Components())
}

func (w *walker) Update(dt float32) {
	w.updates++
	if w.onUpdate != nil {
		w.onUpdate()
	}
}

func init() {
	RegisterActorType("Walker", func(name string) Actor { return &walker{BaseActor: NewBaseActor(name)} })
	RegisterComponentType("Tracer", func(name string, order int32) Component { return newTracer(name, order, nil) })
	RegisterComponentType("Lens", func(name string, order int32) Component {
		return &lens{BaseComponent: NewBaseComponent(name, order)}
	})
}

func newTestScene(t *testing.T, options ...SceneBuilderOption) (Scene, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	options = append([]SceneBuilderOption{WithLogger(zap.New(core))}, options...)
	return NewScene(options...), logs
}

func orders(cs []Component) []int32 {
	out := make([]int32, len(cs))
	for i, c := range cs {
		out[i] = c.RenderOrder()
	}
	return out
}

func names(cs []Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

func TestRenderQueueStaysSorted(t *testing.T) {
	s, _ := newTestScene(t)
	a := s.AddActor(NewBaseActor("holder"))

	for _, order := range []int32{5, 1, 3, 0, 4, 2} {
		a.AttachComponent(newTracer("p", order, nil))
		q := orders(s.RenderQueue())
		assert.True(t, slices.IsSorted(q), "queue %v", q)
	}
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5}, orders(s.RenderQueue()))
}

func TestRenderQueueTiesKeepInsertionOrder(t *testing.T) {
	s, _ := newTestScene(t)
	a := s.AddActor(NewBaseActor("holder"))

	a.AttachComponent(newTracer("first", 1, nil))
	a.AttachComponent(newTracer("hidden", RenderOrderNone, nil))
	a.AttachComponent(newTracer("zero", 0, nil))
	a.AttachComponent(newTracer("second", 1, nil))
	a.AttachComponent(newTracer("third", 1, nil))

	assert.Equal(t, []string{"zero", "first", "second", "third"}, names(s.RenderQueue()))
	assert.Len(t, s.Components(), 5)
}

func TestRenderQueueDebugThresholdAdmitsUnordered(t *testing.T) {
	s, _ := newTestScene(t, WithRenderQueueThreshold(-1))
	a := s.AddActor(NewBaseActor("holder"))

	a.AttachComponent(newTracer("zero", 0, nil))
	a.AttachComponent(newTracer("hidden", RenderOrderNone, nil))

	assert.Equal(t, []string{"hidden", "zero"}, names(s.RenderQueue()))
}

func TestRemoveActorPrunesComponentsOnNextUpdate(t *testing.T) {
	var trace []string
	s, _ := newTestScene(t)
	keep := s.AddActor(NewBaseActor("keep"))
	drop := s.AddActor(NewBaseActor("drop"))

	keep.AttachComponent(newTracer("k1", 0, &trace))
	gone := drop.AttachComponent(newTracer("d1", 1, &trace)).(*tracer)
	keep.AttachComponent(newTracer("k2", RenderOrderNone, &trace))
	drop.AttachComponent(newTracer("d2", 2, &trace))
	keep.AttachComponent(newTracer("k3", 3, &trace))

	s.RemoveActor(drop)
	assert.True(t, gone.destroyed)
	assert.Nil(t, gone.Actor())
	assert.Len(t, s.(*sceneImpl).components, 5, "stale handles remain until the next update")

	s.UpdateComponents(0.016)
	assert.Equal(t, []string{"k1", "k2", "k3"}, trace)
	assert.Equal(t, []string{"k1", "k2", "k3"}, names(s.Components()))
	assert.Equal(t, []string{"k1", "k3"}, names(s.RenderQueue()))
	assert.Len(t, s.(*sceneImpl).components, 3)
	assert.Len(t, s.(*sceneImpl).renderQueue, 2)
	assert.Nil(t, drop.Scene())
}

func TestRemoveUnmanagedActorWarns(t *testing.T) {
	s, logs := newTestScene(t)
	s.RemoveActor(NewBaseActor("stranger"))
	assert.Equal(t, 1, logs.FilterMessage("remove of unmanaged actor").FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestActorByIDMissWarns(t *testing.T) {
	s, logs := newTestScene(t)
	a := s.AddActor(NewBaseActor("present"))

	assert.Same(t, a, s.ActorByID(a.ID()))
	assert.Nil(t, s.ActorByID(a.ID()+1000))

	warned := logs.FilterMessage("actor not found").FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warned, 1)
	assert.Equal(t, uint32(a.ID()+1000), warned[0].ContextMap()["id"])
}

func TestActorByName(t *testing.T) {
	s, logs := newTestScene(t)
	first := s.AddActor(NewBaseActor("twin"))
	s.AddActor(NewBaseActor("twin"))

	assert.Same(t, first, s.ActorByName("twin"))
	assert.Nil(t, s.ActorByName("nobody"))
	assert.Equal(t, 1, logs.FilterMessage("actor name already in use").Len())
}

func TestAddActorRegistersComponentsBeforeOnBegin(t *testing.T) {
	s, _ := newTestScene(t)
	w := &walker{BaseActor: NewBaseActor("walker")}
	p := w.AttachComponent(newTracer("p", 0, nil)).(*tracer)
	assert.True(t, p.Handle().IsZero())

	s.AddActor(w)
	assert.Equal(t, 1, w.componentsAtBegin)
	assert.False(t, p.Handle().IsZero())
	assert.Same(t, w, p.Actor(), "components report the embedding variant as their actor")
	assert.Panics(t, func() { s.AddActor(w) })
}

func TestUpdateActorsInIDOrder(t *testing.T) {
	s, _ := newTestScene(t)
	var seen []ActorID
	var late *walker

	ws := make([]*walker, 3)
	for i := range ws {
		ws[i] = &walker{BaseActor: NewBaseActor("w")}
	}
	for _, i := range []int{2, 0, 1} {
		w := ws[i]
		w.onUpdate = func() { seen = append(seen, w.ID()) }
		s.AddActor(w)
	}
	ws[0].onUpdate = func() {
		seen = append(seen, ws[0].ID())
		if late == nil {
			late = &walker{BaseActor: NewBaseActor("late")}
			s.AddActor(late)
		}
	}

	s.UpdateActors(0.016)
	assert.Equal(t, []ActorID{ws[0].ID(), ws[1].ID(), ws[2].ID()}, seen)
	assert.Equal(t, 0, late.updates)

	s.UpdateActors(0.016)
	assert.Equal(t, 1, late.updates)
}

type spawner struct {
	BaseComponent
	child *tracer
}

func (sp *spawner) Update(dt float32) {
	if sp.child == nil {
		sp.child = newTracer("child", 0, nil)
		sp.Actor().AttachComponent(sp.child)
	}
}

func TestComponentAttachedDuringUpdateRunsSamePass(t *testing.T) {
	s, _ := newTestScene(t)
	a := s.AddActor(NewBaseActor("holder"))
	sp := &spawner{BaseComponent: NewBaseComponent("spawner", RenderOrderNone)}
	a.AttachComponent(sp)

	s.UpdateComponents(0.016)
	require.NotNil(t, sp.child)
	assert.Equal(t, 1, sp.child.counter)
	assert.Equal(t, []string{"spawner", "child"}, names(s.Components()))
}

// switcher replaces its scene's content from inside Update.
type switcher struct {
	BaseComponent
	doc *Document
	err error
}

func (sw *switcher) Update(dt float32) {
	s := sw.Actor().Scene()
	if sw.doc == nil {
		s.Unload()
		return
	}
	sw.err = s.Apply(sw.doc)
}

func TestUnloadDuringUpdateStopsPass(t *testing.T) {
	s, _ := newTestScene(t)
	var trace []string
	a := s.AddActor(NewBaseActor("level"))
	a.AttachComponent(newTracer("first", 0, &trace))
	a.AttachComponent(&switcher{BaseComponent: NewBaseComponent("switch", RenderOrderNone)})
	last := a.AttachComponent(newTracer("last", 1, &trace)).(*tracer)

	require.NotPanics(t, func() { s.UpdateComponents(0.016) })
	assert.Equal(t, []string{"first"}, trace)
	assert.True(t, last.destroyed)
	assert.Empty(t, s.Actors())
	assert.Empty(t, s.Components())
	assert.Empty(t, s.RenderQueue())

	require.NotPanics(t, func() { s.UpdateComponents(0.016) })
}

func TestApplyDuringUpdateSwitchesScene(t *testing.T) {
	s, _ := newTestScene(t)
	var trace []string
	a := s.AddActor(NewBaseActor("level"))
	sw := a.AttachComponent(&switcher{
		BaseComponent: NewBaseComponent("switch", RenderOrderNone),
		doc: &Document{Name: "next", Actors: []ActorDocument{{
			Name:       "spawned",
			Type:       "Walker",
			Components: []ComponentDocument{{Type: "Tracer", Name: "fresh", RenderOrder: 0}},
		}}},
	}).(*switcher)
	a.AttachComponent(newTracer("old", 0, &trace))

	require.NotPanics(t, func() { s.UpdateComponents(0.016) })
	require.NoError(t, sw.err)
	assert.Empty(t, trace)
	assert.Equal(t, "next", s.Name())
	assert.Equal(t, []string{"fresh"}, names(s.Components()))
	assert.Equal(t, []string{"fresh"}, names(s.RenderQueue()))

	s.UpdateComponents(0.016)
	fresh := ComponentsByType[*tracer](s)
	require.Len(t, fresh, 1)
	assert.Equal(t, 1, fresh[0].counter)
}

func TestDespawnReleasesComponent(t *testing.T) {
	s, _ := newTestScene(t)
	a := s.AddActor(NewBaseActor("holder"))
	p := a.AttachComponent(newTracer("p", 0, nil)).(*tracer)
	cam := a.AttachComponent(&lens{BaseComponent: NewBaseComponent("lens", RenderOrderNone)}).(*lens)
	s.SetCamera(cam)
	assert.Same(t, cam, s.Camera())

	p.Despawn()
	assert.True(t, p.destroyed)
	assert.Empty(t, s.RenderQueue())
	assert.Len(t, a.Components(), 1)

	cam.Despawn()
	assert.Nil(t, s.Camera())
	assert.Panics(t, func() { s.SetCamera(cam) })

	s.UpdateComponents(0.016)
	assert.Empty(t, s.(*sceneImpl).components)

	// despawn twice is a no-op
	p.Despawn()
}

func TestDetachedComponentDestroyedWithoutScene(t *testing.T) {
	a := NewBaseActor("loose")
	p := a.AttachComponent(newTracer("p", 0, nil)).(*tracer)
	p.Despawn()
	assert.True(t, p.destroyed)
	assert.Empty(t, a.Components())
	assert.Panics(t, func() {
		other := NewBaseActor("other")
		q := newTracer("q", 0, nil)
		other.AttachComponent(q)
		a.AttachComponent(q)
	})
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	s, _ := newTestScene(t)
	a := s.AddActor(NewBaseActor("holder"))
	p := a.AttachComponent(newTracer("old", 0, nil)).(*tracer)
	old := p.Handle()
	p.Despawn()

	q := a.AttachComponent(newTracer("new", 0, nil)).(*tracer)
	assert.Equal(t, old.index, q.Handle().index)
	assert.NotEqual(t, old.generation, q.Handle().generation)
	assert.Nil(t, s.(*sceneImpl).arena.get(old))
	assert.Equal(t, []string{"new"}, names(s.RenderQueue()))
}

func TestTypeQueries(t *testing.T) {
	s, _ := newTestScene(t)
	plain := s.AddActor(NewBaseActor("plain"))
	w := s.AddActor(&walker{BaseActor: NewBaseActor("walker")}).(*walker)
	plain.AttachComponent(newTracer("p1", 0, nil))
	cam := w.AttachComponent(&lens{BaseComponent: NewBaseComponent("lens", RenderOrderNone)}).(*lens)
	w.AttachComponent(newTracer("p2", 0, nil))

	assert.Equal(t, []*walker{w}, ActorsByType[*walker](s))
	assert.Len(t, ActorsByType[*BaseActor](s), 1)
	assert.Equal(t, []string{"p1", "p2"}, names(toComponents(ComponentsByType[*tracer](s))))
	assert.Len(t, ComponentsByType[Camera](s), 1)

	found, ok := ComponentByType[*lens](w)
	assert.True(t, ok)
	assert.Same(t, cam, found)
	_, ok = ComponentByType[*lens](plain)
	assert.False(t, ok)
}

func toComponents[T Component](in []T) []Component {
	out := make([]Component, len(in))
	for i, c := range in {
		out[i] = c
	}
	return out
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes", "main.yaml")
	s, _ := newTestScene(t, WithName("main"), WithPath(path))

	w := &walker{BaseActor: NewBaseActor("hero")}
	w.Transform().Translation = mgl32.Vec3{1, 2, 3}
	w.Transform().Scale = mgl32.Vec3{10, 10, 10}
	p := w.AttachComponent(newTracer("brain", 2, nil)).(*tracer)
	p.counter = 41
	w.AttachComponent(&lens{BaseComponent: NewBaseComponent("eye", RenderOrderNone)})
	s.AddActor(w)
	s.AddActor(NewBaseActor("prop"))
	require.NoError(t, s.Save())

	loaded, _ := newTestScene(t, WithPath(path))
	require.NoError(t, loaded.Load())
	assert.Equal(t, "main", loaded.Name())

	actors := loaded.Actors()
	require.Len(t, actors, 2)
	hero, ok := actors[0].(*walker)
	require.True(t, ok)
	assert.Equal(t, w.ID(), hero.ID())
	assert.Equal(t, "hero", hero.Name())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, hero.Transform().Translation)
	assert.Equal(t, mgl32.Vec3{10, 10, 10}, hero.Transform().Scale)
	assert.Equal(t, 2, hero.componentsAtBegin, "both components are registered before OnBegin")

	brain, ok := ComponentByType[*tracer](hero)
	require.True(t, ok)
	assert.Equal(t, 41, brain.counter)
	assert.Equal(t, int32(2), brain.RenderOrder())
	require.NotNil(t, loaded.Camera())
	assert.Equal(t, "eye", loaded.Camera().Name())

	fresh := NewBaseActor("after")
	assert.Greater(t, fresh.ID(), actors[1].ID())
}

func TestApplyUnknownType(t *testing.T) {
	s, _ := newTestScene(t)
	err := s.Apply(&Document{Actors: []ActorDocument{{Name: "x", Type: "Ghost"}}})
	assert.ErrorIs(t, err, ErrUnknownType)

	err = s.Apply(&Document{Actors: []ActorDocument{{Name: "x", Type: "Actor", Components: []ComponentDocument{{Type: "Nope"}}}}})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestApplyRejectsDocumentWithoutTouchingScene(t *testing.T) {
	s, _ := newTestScene(t)
	a := s.AddActor(NewBaseActor("keep"))
	p := a.AttachComponent(newTracer("p", 0, nil)).(*tracer)

	bad := []*Document{
		{Actors: []ActorDocument{{Name: "x", Type: "Actor"}, {Name: "y", Type: "Ghost"}}},
		{Actors: []ActorDocument{{Name: "x", Type: "Actor"}, {Name: "y", Type: "Actor", Components: []ComponentDocument{{Type: "Nope"}}}}},
		{Actors: []ActorDocument{{ID: 900, Name: "x", Type: "Actor"}, {ID: 900, Name: "y", Type: "Actor"}}},
	}
	for _, doc := range bad {
		require.Error(t, s.Apply(doc))
		assert.Same(t, a, s.ActorByName("keep"))
		assert.Equal(t, []string{"p"}, names(s.Components()))
		assert.False(t, p.destroyed)
	}
}

func TestApplyRestoreFailureLeavesSceneEmpty(t *testing.T) {
	s, _ := newTestScene(t)
	s.AddActor(NewBaseActor("keep"))

	state := yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "counter"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "many"},
	}}
	err := s.Apply(&Document{Actors: []ActorDocument{
		{Name: "ok", Type: "Walker", Components: []ComponentDocument{{Type: "Tracer", Name: "fine"}}},
		{Name: "broken", Type: "Walker", Components: []ComponentDocument{{Type: "Tracer", Name: "bad", State: state}}},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Empty(t, s.Actors())
	assert.Empty(t, s.Components())
	assert.Nil(t, s.Camera())
}

func TestUnloadReleasesEverything(t *testing.T) {
	s, _ := newTestScene(t)
	a := s.AddActor(NewBaseActor("holder"))
	p := a.AttachComponent(newTracer("p", 0, nil)).(*tracer)

	s.Unload()
	assert.True(t, p.destroyed)
	assert.Empty(t, s.Actors())
	assert.Empty(t, s.Components())
	assert.Empty(t, s.RenderQueue())
	assert.Nil(t, s.Camera())
}

func TestTransformMatrices(t *testing.T) {
	tr := NewTransform()
	assert.True(t, tr.Mat4().ApproxEqual(mgl32.Ident4()))

	tr.Translation = mgl32.Vec3{1, 2, 3}
	tr.Scale = mgl32.Vec3{2, 2, 2}
	p := tr.Mat4().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.True(t, p.ApproxEqual(mgl32.Vec4{3, 2, 3, 1}))

	n := tr.NormalMatrix()
	assert.InDelta(t, 0.5, n.At(0, 0), 1e-6)
	assert.InDelta(t, 1, n.At(3, 3), 1e-6)
}
