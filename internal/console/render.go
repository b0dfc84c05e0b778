package console

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/initiative/internal/bestiary"
	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/condition"
	"github.com/cory-johannsen/initiative/internal/game/initiative"
	"github.com/cory-johannsen/initiative/internal/game/roster"
)

func (c *Console) renderLineup(entries []roster.Entry, turn int, results map[string]initiative.RollResult) string {
	var b strings.Builder
	b.WriteString(c.paint.paintf(Bold, "Turn %d", turn))
	b.WriteString("\n")
	if len(entries) == 0 {
		b.WriteString(c.paint.paint(Dim, "  No combatants. Use 'add' or 'summon'."))
		b.WriteString("\n")
		return b.String()
	}
	for _, e := range entries {
		if e.IsGroup() {
			fmt.Fprintf(&b, "%5d  %s %s\n", e.Initiative(),
				c.paint.paint(BrightCyan, e.Group.Name),
				c.paint.paintf(Dim, "(group %s)", e.Group.ID))
			for _, m := range e.Members {
				b.WriteString("       - ")
				b.WriteString(c.renderRow(m, results))
				b.WriteString("\n")
			}
			continue
		}
		fmt.Fprintf(&b, "%5d  %s\n", e.Initiative(), c.renderRow(*e.Combatant, results))
	}
	return b.String()
}

func (c *Console) renderRow(m combatant.Combatant, results map[string]initiative.RollResult) string {
	nameColor := BrightWhite
	if m.Kind == combatant.KindMonster {
		nameColor = BrightYellow
	}
	parts := []string{
		c.paint.paint(nameColor, fmt.Sprintf("%-20s", m.Name)),
		c.hp(m),
		fmt.Sprintf("AC %2d", m.AC),
	}
	if conds := c.conditionList(m.Conditions); conds != "" {
		parts = append(parts, c.paint.paint(Cyan, conds))
	}
	if r, ok := results[m.ID]; ok {
		parts = append(parts, c.paint.paintf(Green, "rolled %s", r))
	}
	parts = append(parts, c.paint.paint(Dim, m.ID))
	return strings.Join(parts, "  ")
}

func (c *Console) hp(m combatant.Combatant) string {
	text := fmt.Sprintf("HP %3d/%-3d", m.HP, m.MaxHP)
	switch {
	case m.IsDead:
		return c.paint.paint(Red, text+" DEAD")
	case m.IsStable:
		return c.paint.paint(Yellow, text+" stable")
	case m.HP == 0:
		return c.paint.paintf(BrightRed, "%s dying S%d/F%d", text, m.DeathSavesSuccess, m.DeathSavesFail)
	case m.HP*2 <= m.MaxHP:
		return c.paint.paint(Yellow, text)
	}
	return text
}

func (c *Console) conditionList(set condition.Set) string {
	all := set.All()
	labels := make([]string, 0, len(all))
	for _, inst := range all {
		labels = append(labels, c.conditionLabel(inst))
	}
	return strings.Join(labels, ", ")
}

func (c *Console) conditionLabel(inst condition.Instance) string {
	label := c.catalog.Label(inst.Kind)
	switch {
	case inst.Kind == condition.Exhaustion:
		return fmt.Sprintf("%s %d", label, inst.Level)
	case inst.Duration != nil:
		return fmt.Sprintf("%s (%d)", label, *inst.Duration)
	}
	return label
}

func (c *Console) renderStatus(m combatant.Combatant, group *combatant.Group, last *initiative.RollResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s\n", c.paint.paint(Bold, m.Name), m.Kind, c.paint.paint(Dim, m.ID))
	if group != nil {
		fmt.Fprintf(&b, "  Group: %s\n", group.Name)
	}
	fmt.Fprintf(&b, "  Initiative %d", m.Initiative)
	if last != nil {
		fmt.Fprintf(&b, " (rolled %s)", last)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  AC %d\n", c.hp(m), m.AC)

	scores := make([]string, 0, 6)
	for _, s := range m.Abilities.Named() {
		scores = append(scores, s.Label+" "+c.display.Display(s.Score))
	}
	fmt.Fprintf(&b, "  %s\n", strings.Join(scores, "  "))

	all := m.Conditions.All()
	if len(all) > 0 {
		b.WriteString("  Conditions:\n")
		for _, inst := range all {
			fmt.Fprintf(&b, "    %s\n", c.paint.paint(Cyan, c.conditionLabel(inst)))
			for _, eff := range c.catalog.Effects(inst.Kind, inst.Level) {
				fmt.Fprintf(&b, "      - %s\n", eff)
			}
		}
	}
	if m.Conditions.HasAttackDisadvantage() {
		b.WriteString("  Attacks with disadvantage\n")
	}
	if m.Conditions.GrantsAdvantageToAttackers() {
		b.WriteString("  Attackers have advantage\n")
	}
	if m.Notes != "" {
		b.WriteString("  Notes:\n")
		for _, line := range strings.Split(m.Notes, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}

func (c *Console) renderHelp() string {
	var b strings.Builder
	byCat := c.registry.CommandsByCategory()
	cats := make([]string, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		b.WriteString(c.paint.paint(Bold, strings.ToUpper(cat[:1])+cat[1:]))
		b.WriteString("\n")
		for _, cmd := range byCat[cat] {
			fmt.Fprintf(&b, "  %-36s %s\n", cmd.Usage, cmd.Help)
		}
	}
	return b.String()
}

func (c *Console) renderCommandHelp(cmd *Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", cmd.Usage, cmd.Help)
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(&b, "  aliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}
	return b.String()
}

func (c *Console) renderSearch(results []bestiary.Summary) string {
	if len(results) == 0 {
		return "No monsters found.\n"
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "  %-24s %s\n", r.Index, r.Name)
	}
	b.WriteString(c.paint.paint(Dim, "Use 'summon <index>' to add one."))
	b.WriteString("\n")
	return b.String()
}
