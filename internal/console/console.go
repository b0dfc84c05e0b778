package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/encounter"
	"github.com/cory-johannsen/initiative/internal/game/ability"
	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/condition"
	"github.com/cory-johannsen/initiative/internal/game/initiative"
	"github.com/cory-johannsen/initiative/internal/game/roster"
)

var (
	// ErrUsage is returned when a command's arguments are malformed.
	ErrUsage = errors.New("usage")
	// ErrUnknownCommand is returned for input that names no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoMatch is returned when a reference names no combatant or group.
	ErrNoMatch = errors.New("no combatant or group matches")
	// ErrAmbiguous is returned when an id prefix matches more than one entry.
	ErrAmbiguous = errors.New("ambiguous reference")
)

// Console reads commands, applies them to a tracker and writes the results.
type Console struct {
	tracker  *encounter.Tracker
	registry *Registry
	lines    *LineReader
	out      io.Writer
	catalog  *condition.Catalog
	display  ability.DisplayPolicy
	paint    palette
	logger   *zap.Logger
	handlers map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, args []string) (string, error)

// Option configures a Console.
type Option func(*Console)

// WithCatalog sets the condition catalog used for labels and effects.
func WithCatalog(cat *condition.Catalog) Option {
	return func(c *Console) { c.catalog = cat }
}

// WithDisplay sets how ability scores are rendered.
func WithDisplay(p ability.DisplayPolicy) Option {
	return func(c *Console) { c.display = p }
}

// WithColor enables ANSI colors.
func WithColor(on bool) Option {
	return func(c *Console) { c.paint = palette(on) }
}

// WithRegistry replaces the built-in command registry.
func WithRegistry(r *Registry) Option {
	return func(c *Console) { c.registry = r }
}

// New creates a Console.
//
// Precondition: t, lines, out and logger must be non-nil.
func New(t *encounter.Tracker, lines *LineReader, out io.Writer, logger *zap.Logger, opts ...Option) *Console {
	c := &Console{
		tracker:  t,
		registry: DefaultRegistry(),
		lines:    lines,
		out:      out,
		catalog:  condition.Default(),
		display:  ability.DefaultDisplay,
		logger:   logger,
	}
	for _, o := range opts {
		o(c)
	}
	c.handlers = map[string]handlerFunc{
		HandlerHelp:      c.help,
		HandlerList:      c.list,
		HandlerAdd:       c.add,
		HandlerHP:        c.hpCmd,
		HandlerInit:      c.setInit,
		HandlerRoll:      c.roll,
		HandlerRollAll:   c.rollAll,
		HandlerCond:      c.cond,
		HandlerUncond:    c.uncond,
		HandlerExh:       c.exh,
		HandlerSave:      c.save,
		HandlerStabilize: c.stabilize,
		HandlerStatus:    c.status,
		HandlerNext:      c.next,
		HandlerTurn:      c.turn,
		HandlerRemove:    c.remove,
		HandlerGroup:     c.group,
		HandlerUngroup:   c.ungroup,
		HandlerSearch:    c.search,
		HandlerSummon:    c.summon,
		HandlerNewCombat: c.newCombat,
	}
	return c
}

// Run prompts for and dispatches commands until quit, end of input or ctx
// cancellation. Command errors are printed and do not end the loop.
func (c *Console) Run(ctx context.Context) error {
	c.write(c.renderLineup(c.tracker.Engine().Order(), c.tracker.Turn(), c.tracker.Engine().Results()))
	for {
		c.write(c.paint.paint(BrightCyan, "> "))
		line, err := c.lines.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		out, quit, err := c.Dispatch(ctx, line)
		if err != nil {
			c.logger.Debug("command failed", zap.String("line", line), zap.Error(err))
			c.write(c.paint.paintf(Red, "Error: %v", err) + "\n")
			continue
		}
		c.write(out)
		if quit {
			return nil
		}
	}
}

// Dispatch executes one command line and returns its output and whether
// the user asked to quit.
func (c *Console) Dispatch(ctx context.Context, line string) (string, bool, error) {
	parsed := Parse(line)
	if parsed.Command == "" {
		return "", false, nil
	}
	cmd, ok := c.registry.Resolve(parsed.Command)
	if !ok {
		return "", false, fmt.Errorf("%w: %q (try 'help')", ErrUnknownCommand, parsed.Command)
	}
	if cmd.Handler == HandlerQuit {
		if err := c.tracker.Flush(ctx); err != nil {
			return "", false, fmt.Errorf("saving encounter: %w", err)
		}
		return "Encounter saved. Goodbye.\n", true, nil
	}
	h, ok := c.handlers[cmd.Handler]
	if !ok {
		return "", false, fmt.Errorf("%w: %q has no handler", ErrUnknownCommand, cmd.Name)
	}
	out, err := h(ctx, parsed.Args)
	if errors.Is(err, ErrUsage) {
		return "", false, fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
	}
	return out, false, err
}

func (c *Console) write(s string) {
	if _, err := io.WriteString(c.out, s); err != nil {
		c.logger.Warn("console write failed", zap.Error(err))
	}
}

// ref is a resolved combatant or group reference.
type ref struct {
	combatant *combatant.Combatant
	group     *combatant.Group
}

// resolve finds a combatant or group by case-insensitive exact name, then
// by unique id prefix.
func (c *Console) resolve(s string) (ref, error) {
	store := c.tracker.Store()
	all := store.All()
	groups := store.Groups()
	for i := range all {
		if strings.EqualFold(all[i].Name, s) {
			return ref{combatant: &all[i]}, nil
		}
	}
	for i := range groups {
		if strings.EqualFold(groups[i].Name, s) {
			return ref{group: &groups[i]}, nil
		}
	}
	var matches []ref
	for i := range all {
		if strings.HasPrefix(all[i].ID, s) {
			matches = append(matches, ref{combatant: &all[i]})
		}
	}
	for i := range groups {
		if strings.HasPrefix(groups[i].ID, s) {
			matches = append(matches, ref{group: &groups[i]})
		}
	}
	switch len(matches) {
	case 0:
		return ref{}, fmt.Errorf("%w: %q", ErrNoMatch, s)
	case 1:
		return matches[0], nil
	}
	return ref{}, fmt.Errorf("%w: %q matches %d entries", ErrAmbiguous, s, len(matches))
}

func (c *Console) resolveCombatant(s string) (combatant.Combatant, error) {
	r, err := c.resolve(s)
	if err != nil {
		return combatant.Combatant{}, err
	}
	if r.combatant == nil {
		return combatant.Combatant{}, fmt.Errorf("%q is a group; name a member instead", s)
	}
	return *r.combatant, nil
}

func (c *Console) help(_ context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return c.renderHelp(), nil
	}
	cmd, ok := c.registry.Resolve(strings.ToLower(args[0]))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
	return c.renderCommandHelp(cmd), nil
}

func (c *Console) list(_ context.Context, _ []string) (string, error) {
	eng := c.tracker.Engine()
	return c.renderLineup(eng.Order(), c.tracker.Turn(), eng.Results()), nil
}

func (c *Console) add(_ context.Context, args []string) (string, error) {
	if len(args) < 2 || len(args) > 5 {
		return "", ErrUsage
	}
	kind, ok := combatant.ParseKind(args[0])
	if !ok {
		return "", fmt.Errorf("unknown kind %q (want pc or monster)", args[0])
	}
	nums, err := ints(args[2:])
	if err != nil {
		return "", err
	}
	d := combatant.Draft{Name: args[1], Kind: kind}
	if len(nums) > 0 {
		d.HP = &nums[0]
	}
	if len(nums) > 1 {
		d.AC = &nums[1]
	}
	if len(nums) > 2 {
		d.Abilities.Dexterity = &nums[2]
	}
	added := c.tracker.Store().Add(d)
	return fmt.Sprintf("Added %s (%s).\n", added.Name, added.ID), nil
}

func (c *Console) hpCmd(_ context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrUsage
	}
	m, err := c.resolveCombatant(args[0])
	if err != nil {
		return "", err
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return "", ErrUsage
	}
	if err := c.tracker.Store().UpdateHP(m.ID, delta); err != nil {
		return "", err
	}
	m, _ = c.tracker.Store().GetByID(m.ID)
	return fmt.Sprintf("%s: %s\n", m.Name, c.hp(m)), nil
}

func (c *Console) setInit(_ context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrUsage
	}
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return "", ErrUsage
	}
	r, err := c.resolve(args[0])
	if err != nil {
		return "", err
	}
	store := c.tracker.Store()
	if r.group != nil {
		if err := store.ApplyGroupInitiative(r.group.ID, value); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s initiative set to %d.\n", r.group.Name, value), nil
	}
	if err := store.SetInitiative(r.combatant.ID, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s initiative set to %d.\n", r.combatant.Name, value), nil
}

func (c *Console) roll(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	m, err := c.resolveCombatant(args[0])
	if err != nil {
		return "", err
	}
	res, err := c.tracker.Engine().RollOne(m.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s rolls %s\n", m.Name, c.paint.paint(Green, res.String())), nil
}

func (c *Console) rollAll(_ context.Context, args []string) (string, error) {
	var kind *combatant.Kind
	switch len(args) {
	case 0:
	case 1:
		k, ok := combatant.ParseKind(args[0])
		if !ok {
			return "", fmt.Errorf("unknown kind %q (want pc or monster)", args[0])
		}
		kind = &k
	default:
		return "", ErrUsage
	}
	results, err := c.tracker.Engine().RollAll(kind)
	if err != nil {
		return "", err
	}
	eng := c.tracker.Engine()
	return fmt.Sprintf("Rolled %d.\n", len(results)) + c.renderLineup(eng.Order(), c.tracker.Turn(), eng.Results()), nil
}

func (c *Console) conditionArgs(args []string) (combatant.Combatant, condition.Kind, error) {
	m, err := c.resolveCombatant(args[0])
	if err != nil {
		return m, "", err
	}
	kind, ok := condition.ParseKind(args[1])
	if !ok {
		return m, "", fmt.Errorf("unknown condition %q", args[1])
	}
	return m, kind, nil
}

func (c *Console) cond(_ context.Context, args []string) (string, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", ErrUsage
	}
	m, kind, err := c.conditionArgs(args)
	if err != nil {
		return "", err
	}
	duration := 0
	if len(args) == 3 {
		if duration, err = strconv.Atoi(args[2]); err != nil {
			return "", ErrUsage
		}
	}
	if err := c.tracker.Store().AddCondition(m.ID, kind, duration, 0); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s is %s.\n", m.Name, c.catalog.Label(kind)), nil
}

func (c *Console) uncond(_ context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrUsage
	}
	m, kind, err := c.conditionArgs(args)
	if err != nil {
		return "", err
	}
	if err := c.tracker.Store().RemoveCondition(m.ID, kind); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s is no longer %s.\n", m.Name, c.catalog.Label(kind)), nil
}

func (c *Console) exh(_ context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrUsage
	}
	m, err := c.resolveCombatant(args[0])
	if err != nil {
		return "", err
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		return "", ErrUsage
	}
	store := c.tracker.Store()
	if err := store.SetExhaustionLevel(m.ID, level); err != nil {
		return "", err
	}
	got, err := store.ExhaustionLevel(m.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s exhaustion: %d.\n", m.Name, got), nil
}

func (c *Console) save(_ context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrUsage
	}
	m, err := c.resolveCombatant(args[0])
	if err != nil {
		return "", err
	}
	var success bool
	switch strings.ToLower(args[1]) {
	case "s", "success", "pass":
		success = true
	case "f", "fail", "failure":
	default:
		return "", ErrUsage
	}
	if err := c.tracker.Store().AddDeathSave(m.ID, success); err != nil {
		return "", err
	}
	m, _ = c.tracker.Store().GetByID(m.ID)
	return fmt.Sprintf("%s: %s\n", m.Name, c.hp(m)), nil
}

func (c *Console) stabilize(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	m, err := c.resolveCombatant(args[0])
	if err != nil {
		return "", err
	}
	if err := c.tracker.Store().Stabilize(m.ID); err != nil {
		return "", err
	}
	m, _ = c.tracker.Store().GetByID(m.ID)
	return fmt.Sprintf("%s: %s\n", m.Name, c.hp(m)), nil
}

func (c *Console) status(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	r, err := c.resolve(args[0])
	if err != nil {
		return "", err
	}
	store := c.tracker.Store()
	if r.group != nil {
		members, err := store.GroupMembers(r.group.ID)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s [group, %s] initiative %d\n", r.group.Name, r.group.Kind, r.group.Initiative)
		for _, m := range members {
			b.WriteString(c.renderStatus(m, nil, nil))
		}
		return b.String(), nil
	}
	var group *combatant.Group
	if g, ok := store.GroupOf(r.combatant.ID); ok {
		group = &g
	}
	var last *initiative.RollResult
	if res, ok := c.tracker.Engine().LastResult(r.combatant.ID); ok {
		last = &res
	}
	return c.renderStatus(*r.combatant, group, last), nil
}

func (c *Console) next(_ context.Context, _ []string) (string, error) {
	turn, expired := c.tracker.NextTurn()
	var b strings.Builder
	b.WriteString(c.paint.paintf(Bold, "Turn %d", turn))
	b.WriteString("\n")
	store := c.tracker.Store()
	for _, m := range store.All() {
		kinds, ok := expired[m.ID]
		if !ok {
			continue
		}
		labels := make([]string, len(kinds))
		for i, k := range kinds {
			labels[i] = c.catalog.Label(k)
		}
		fmt.Fprintf(&b, "  %s is no longer %s.\n", m.Name, strings.Join(labels, ", "))
	}
	return b.String(), nil
}

func (c *Console) turn(_ context.Context, args []string) (string, error) {
	switch {
	case len(args) == 0:
	case len(args) == 1 && strings.EqualFold(args[0], "reset"):
		c.tracker.ResetTurn()
	case len(args) == 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", ErrUsage
		}
		if err := c.tracker.SetTurn(n); err != nil {
			return "", err
		}
	default:
		return "", ErrUsage
	}
	return fmt.Sprintf("Turn %d.\n", c.tracker.Turn()), nil
}

func (c *Console) remove(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	m, err := c.resolveCombatant(args[0])
	if err != nil {
		return "", err
	}
	removed, err := c.tracker.Remove(ctx, m.ID)
	if err != nil {
		return "", err
	}
	if !removed {
		return "Cancelled.\n", nil
	}
	return fmt.Sprintf("Removed %s.\n", m.Name), nil
}

func (c *Console) group(_ context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", ErrUsage
	}
	ids := make([]string, 0, len(args)-1)
	var kind combatant.Kind
	for i, a := range args[1:] {
		m, err := c.resolveCombatant(a)
		if err != nil {
			return "", err
		}
		if i == 0 {
			kind = m.Kind
		}
		ids = append(ids, m.ID)
	}
	g, err := c.tracker.Store().CreateGroup(args[0], kind, ids)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created group %s with %d members (%s).\n", g.Name, len(g.MemberIDs), g.ID), nil
}

func (c *Console) ungroup(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	r, err := c.resolve(args[0])
	if err != nil {
		return "", err
	}
	if r.group == nil {
		return "", fmt.Errorf("%w: %q is not a group", roster.ErrGroupNotFound, args[0])
	}
	if err := c.tracker.Store().RemoveGroup(r.group.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Dissolved %s.\n", r.group.Name), nil
}

func (c *Console) search(ctx context.Context, args []string) (string, error) {
	results, err := c.tracker.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "Search cleared.\n", nil
	}
	return c.renderSearch(results), nil
}

func (c *Console) summon(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrUsage
	}
	m, res, err := c.tracker.AddFromExternalSource(ctx, args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s (%s), initiative %s.\n", m.Name, m.ID, c.paint.paint(Green, res.String())), nil
}

func (c *Console) newCombat(ctx context.Context, _ []string) (string, error) {
	started, err := c.tracker.NewCombat(ctx)
	if err != nil {
		return "", err
	}
	if !started {
		return "Cancelled.\n", nil
	}
	return "New combat started. Turn 1.\n", nil
}

func ints(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrUsage, a)
		}
		out[i] = v
	}
	return out, nil
}
