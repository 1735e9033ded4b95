// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/djhaskin987/lighthouse/helper/logging"
	"github.com/djhaskin987/lighthouse/jobspec"
	"github.com/djhaskin987/lighthouse/scheduler"
	"github.com/djhaskin987/lighthouse/structs"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
	metrics "github.com/hashicorp/go-metrics"
	"github.com/posener/complete"
)

const (
	// placeExitUnassigned is returned when the batch ran but left at least
	// one workload unassigned.
	placeExitUnassigned = 2
)

type PlaceCommand struct {
	Meta
}

func (c *PlaceCommand) Help() string {
	helpText := `
Usage: lighthouse place [options] <file>

  Places the workloads of a cluster document onto its nodes in a single batch
  and reports where each workload landed along with the capacity left on
  every node.

  The exit code is 0 when every workload was placed, 2 when some workloads
  could not be placed, and 1 on any error.

General Options:

  ` + generalOptionsUsage() + `

Place Options:

  -policy=<type>
    Overrides the policy of the cluster document. One of "priority",
    "round-robin" or "binpack".

  -rubric <key=weight>
    Sets the weight of a resource key in the binpack rubric, overriding the
    weight from the cluster document. May be specified multiple times.

  -json
    Output the placement result in JSON format. Warnings are written through
    the logger instead of standard output.

  -verbose
    Display how many nodes were evaluated for each workload and which
    attempt placed it.

  -metrics
    Display the placement counters and timers collected during the batch.

  -log-level=<level>
    Specify the verbosity level of the placement logs. One of "trace",
    "debug", "info", "warn" or "error". Defaults to "warn".
`
	return strings.TrimSpace(helpText)
}

func (c *PlaceCommand) Synopsis() string {
	return "Place the workloads of a cluster document onto its nodes"
}

func (c *PlaceCommand) Name() string { return "place" }

func (c *PlaceCommand) AutocompleteFlags() complete.Flags {
	return mergeAutocompleteFlags(c.Meta.AutocompleteFlags(FlagSetColor),
		complete.Flags{
			"-policy":    complete.PredictSet(jobspec.PolicyTypes...),
			"-rubric":    complete.PredictAnything,
			"-json":      complete.PredictNothing,
			"-verbose":   complete.PredictNothing,
			"-metrics":   complete.PredictNothing,
			"-log-level": complete.PredictSet("trace", "debug", "info", "warn", "error"),
		})
}

func (c *PlaceCommand) AutocompleteArgs() complete.Predictor {
	return clusterFilePredictor
}

func (c *PlaceCommand) Run(args []string) int {
	var policy, logLevel string
	var jsonOutput, verbose, showMetrics bool
	rubric := make(map[string]float64)

	flags := c.Meta.FlagSet(c.Name(), FlagSetColor)
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.StringVar(&policy, "policy", "", "")
	flags.Var((funcVar)(func(s string) error {
		key, weight, err := parseWeight(s)
		if err != nil {
			return err
		}
		rubric[key] = weight
		return nil
	}), "rubric", "")
	flags.BoolVar(&jsonOutput, "json", false, "")
	flags.BoolVar(&verbose, "verbose", false, "")
	flags.BoolVar(&showMetrics, "metrics", false, "")
	flags.StringVar(&logLevel, "log-level", "warn", "")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	// Check that we got exactly one file
	args = flags.Args()
	if len(args) != 1 {
		c.Ui.Error("This command takes one argument: <file>")
		c.Ui.Error(commandErrorText(c))
		return 1
	}
	file := args[0]

	level := hclog.LevelFromString(logLevel)
	if level == hclog.NoLevel {
		c.Ui.Error(fmt.Sprintf("Invalid log level %q", logLevel))
		return 1
	}
	logOutput := &uiErrorWriter{ui: c.Ui}
	defer logOutput.Close()
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "lighthouse",
		Level:  level,
		Output: logOutput,
	})

	cluster, err := jobspec.ParseFile(file)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error parsing cluster file %s: %s", file, err))
		return 1
	}

	// Flags override the document's policy block
	override := cluster.Policy.Copy()
	if policy != "" {
		t, err := jobspec.ParsePolicyType(policy)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Error parsing -policy: %s", err))
			return 1
		}
		override.Type = t
	}
	if len(rubric) > 0 {
		if override.Rubric == nil {
			override.Rubric = make(map[string]float64, len(rubric))
		}
		maps.Copy(override.Rubric, rubric)
	}
	if override.Type != cluster.Policy.Type || len(rubric) > 0 {
		logger.Debug("policy overridden", "from", cluster.Policy.Type, "to", override.Type,
			"rubric", structs.FormatVector(override.Rubric))
	}
	cluster.Policy = override
	if err := cluster.Validate(); err != nil {
		c.Ui.Error(fmt.Sprintf("Error validating cluster: %s", err))
		return 1
	}

	var sink *metrics.InmemSink
	if showMetrics {
		sink, err = setupPlacementMetrics()
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Error setting up metrics: %s", err))
			return 1
		}
	}

	d, err := cluster.Distributor()
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error building distributor: %s", err))
		return 1
	}
	logger.Debug("placing workloads", "policy", cluster.Policy.Type,
		"nodes", len(cluster.Nodes), "workloads", len(cluster.Workloads))

	m := scheduler.NewResourceManager(logger, d)
	results := m.AttemptAssignLoads(cluster.Workloads)
	unassigned := scheduler.UnassignedLoads(results)

	var warnUi cli.Ui = c.Ui
	if jsonOutput {
		warnUi = logging.NewHcLogUI(logger, c.Name())
		out, err := json.MarshalIndent(newPlacementOutput(cluster, results, unassigned), "", "  ")
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Error formatting JSON output: %s", err))
			return 1
		}
		c.Ui.Output(string(out))
	} else {
		c.Ui.Output(c.Colorize().Color("[bold]Placements[reset]"))
		c.Ui.Output(formatPlacements(m, cluster.Workloads, results, verbose))
		c.Ui.Output(c.Colorize().Color("\n[bold]Nodes[reset]"))
		c.Ui.Output(formatNodes(cluster.Nodes))
		if sink != nil {
			c.Ui.Output(c.Colorize().Color("\n[bold]Metrics[reset]"))
			c.Ui.Output(formatMetrics(sink))
		}
	}

	if len(unassigned) > 0 {
		warnUi.Warn(fmt.Sprintf("%d of %d workloads could not be placed: %s",
			len(unassigned), len(cluster.Workloads), strings.Join(unassigned, ", ")))
		return placeExitUnassigned
	}
	return 0
}

func formatPlacements(m *scheduler.ResourceManager, ws []*structs.Workload,
	results map[string]string, verbose bool) string {

	header := "Workload|Node|Requirements"
	if verbose {
		header += "|Attempt|Evaluated|Rejected"
	}
	rows := []string{header}
	for _, w := range ws {
		node := results[w.Name]
		if node == scheduler.Unassigned {
			node = "unassigned"
		}
		row := fmt.Sprintf("%s|%s|%s", w.Name, node, structs.FormatVector(w.Requirements))
		if verbose {
			metric := m.PlacementMetric(w.Name)
			if metric == nil {
				metric = &scheduler.PlacementMetric{}
			}
			row += fmt.Sprintf("|%s|%d|%d", metric.Attempt, metric.NodesEvaluated, metric.NodesRejected)
		}
		rows = append(rows, row)
	}
	return formatList(rows)
}

func formatNodes(nodes []*structs.Node) string {
	rows := []string{"Node|Remaining|Workloads"}
	for _, n := range nodes {
		rows = append(rows, fmt.Sprintf("%s|%s|%s",
			n.Name, structs.FormatVector(n.Resources), strings.Join(n.AssignedNames(), ", ")))
	}
	return formatList(rows)
}

// setupPlacementMetrics routes go-metrics into an in-memory sink for the
// duration of the command.
func setupPlacementMetrics() (*metrics.InmemSink, error) {
	sink := metrics.NewInmemSink(10*time.Second, time.Minute)
	cfg := metrics.DefaultConfig("")
	cfg.EnableHostname = false
	cfg.EnableRuntimeMetrics = false
	if _, err := metrics.NewGlobal(cfg, sink); err != nil {
		return nil, err
	}
	return sink, nil
}

func formatMetrics(sink *metrics.InmemSink) string {
	type total struct {
		count int
		sum   float64
	}
	totals := make(map[string]*total)
	add := func(values map[string]metrics.SampledValue) {
		for _, v := range values {
			if v.AggregateSample == nil {
				continue
			}
			t, ok := totals[v.Name]
			if !ok {
				t = new(total)
				totals[v.Name] = t
			}
			t.count += v.Count
			t.sum += v.Sum
		}
	}
	for _, interval := range sink.Data() {
		interval.RLock()
		add(interval.Counters)
		add(interval.Samples)
		interval.RUnlock()
	}

	rows := []string{"Metric|Count|Sum"}
	for _, name := range slices.Sorted(maps.Keys(totals)) {
		t := totals[name]
		rows = append(rows, fmt.Sprintf("%s|%s|%g", name, humanize.Comma(int64(t.count)), t.sum))
	}
	return formatList(rows)
}

// placementOutput is the JSON form of a placement result.
type placementOutput struct {
	Policy      string            `json:"policy"`
	Assignments map[string]string `json:"assignments"`
	Unassigned  []string          `json:"unassigned"`
	Nodes       []nodeOutput      `json:"nodes"`
}

type nodeOutput struct {
	Name      string         `json:"name"`
	Remaining map[string]any `json:"remaining"`
	Workloads []string       `json:"workloads"`
}

func newPlacementOutput(cluster *jobspec.Cluster, results map[string]string, unassigned []string) *placementOutput {
	out := &placementOutput{
		Policy:      cluster.Policy.Type,
		Assignments: make(map[string]string, len(results)),
		Unassigned:  unassigned,
		Nodes:       make([]nodeOutput, 0, len(cluster.Nodes)),
	}
	if out.Unassigned == nil {
		out.Unassigned = []string{}
	}
	for name, node := range results {
		if node != scheduler.Unassigned {
			out.Assignments[name] = node
		}
	}
	for _, n := range cluster.Nodes {
		out.Nodes = append(out.Nodes, nodeOutput{
			Name:      n.Name,
			Remaining: jsonVector(n.Resources),
			Workloads: n.AssignedNames(),
		})
	}
	return out
}

// jsonVector renders non-finite capacities as strings, which JSON can carry:
// wards become "ward", the others "inf" or "nan".
func jsonVector(v map[string]float64) map[string]any {
	out := make(map[string]any, len(v))
	for k, f := range v {
		switch {
		case structs.IsWard(f):
			out[k] = "ward"
		case math.IsInf(f, 1):
			out[k] = "inf"
		case math.IsNaN(f):
			out[k] = "nan"
		default:
			out[k] = f
		}
	}
	return out
}

func mergeAutocompleteFlags(flags ...complete.Flags) complete.Flags {
	merged := make(map[string]complete.Predictor, len(flags))
	for _, f := range flags {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}
