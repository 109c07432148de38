package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	schemacheck "github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolDefinition is the provider-neutral description of one tool.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// Parameters returns the input schema as a plain JSON object.
func (d ToolDefinition) Parameters() map[string]any {
	data, err := json.Marshal(d.Schema)
	if err != nil {
		panic(fmt.Sprintf("tool %s: schema does not marshal: %v", d.Name, err))
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		panic(fmt.Sprintf("tool %s: schema does not unmarshal: %v", d.Name, err))
	}
	delete(params, "$schema")
	delete(params, "$id")
	return params
}

type toolEntry struct {
	name        string
	description string
	schema      func() *jsonschema.Schema
}

func toolOf[T any](name, description string) toolEntry {
	return toolEntry{name: name, description: description, schema: reflectSchema[T]}
}

func reflectSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}

var catalog = []toolEntry{
	toolOf[searchCustomersArgs]("search_customers",
		"Searches customers by name, email or phone. Tolerates partial names and small typos. Returns the closest matches first."),
	toolOf[customerIDArgs]("get_customer",
		"Gets a customer's full record by ID together with their vehicles."),
	toolOf[createCustomerArgs]("create_customer",
		"Creates a new customer record."),
	toolOf[updateCustomerArgs]("update_customer",
		"Updates a customer. Only the fields provided are changed; everything else keeps its current value."),
	toolOf[customerIDArgs]("delete_customer",
		"Permanently deletes a customer. Fails while the customer has open jobs."),

	toolOf[customerIDArgs]("list_vehicles",
		"Lists the vehicles owned by a customer."),
	toolOf[createVehicleArgs]("create_vehicle",
		"Adds a vehicle to a customer."),
	toolOf[updateVehicleArgs]("update_vehicle",
		"Updates a vehicle. Only the fields provided are changed."),
	toolOf[vehicleIDArgs]("delete_vehicle",
		"Permanently deletes a vehicle."),

	toolOf[listJobsArgs]("list_jobs",
		"Lists jobs, newest first, optionally filtered by status or customer."),
	toolOf[jobIDArgs]("get_job",
		"Gets a job with its line items and current total."),
	toolOf[createJobArgs]("create_job",
		"Opens a new job for a customer. New jobs start as not_started."),
	toolOf[updateJobArgs]("update_job",
		"Updates a job's details. Only the fields provided are changed. Use update_job_status to change status."),
	toolOf[updateJobStatusArgs]("update_job_status",
		"Moves a job to a new status. Allowed: not_started to in_progress; in_progress to waiting_for_parts or complete; waiting_for_parts back to in_progress; any open job to cancelled."),
	toolOf[jobIDArgs]("delete_job",
		"Permanently deletes a job and its line items."),

	toolOf[addLineItemArgs]("add_line_item",
		"Adds a labor, part or fee line to a job. Prices are in dollars."),
	toolOf[updateLineItemArgs]("update_line_item",
		"Updates a line item. Only the fields provided are changed."),
	toolOf[lineItemIDArgs]("delete_line_item",
		"Removes a line item from its job."),

	toolOf[createEstimateArgs]("create_estimate",
		"Creates a draft estimate from a job's current line items including tax."),
	toolOf[estimateIDArgs]("get_estimate",
		"Gets an estimate by ID."),
	toolOf[estimateIDArgs]("send_estimate",
		"Sends a draft estimate to the job's customer."),
	toolOf[updateEstimateStatusArgs]("update_estimate_status",
		"Records that a sent estimate was approved or declined by the customer."),

	toolOf[createInvoiceArgs]("create_invoice",
		"Creates the invoice for a job from its line items. A job can only be invoiced once."),

	toolOf[listTeamMembersArgs]("list_team_members",
		"Lists active team members, optionally filtered by role."),

	toolOf[getReportArgs]("get_report",
		"Runs a business report over a date range: revenue, jobs_by_status or top_customers."),

	toolOf[getCurrentTimeArgs]("get_current_time",
		"Gets the current date and time in the shop's time zone."),
}

var definitions = sync.OnceValue(func() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(catalog))
	for _, entry := range catalog {
		defs = append(defs, ToolDefinition{
			Name:        entry.name,
			Description: entry.description,
			Schema:      entry.schema(),
		})
	}
	return defs
})

// Definitions returns the tool catalog in declaration order.
func Definitions() []ToolDefinition {
	return slices.Clone(definitions())
}

// Names returns the sorted tool names.
func Names() []string {
	names := lo.Map(definitions(), func(d ToolDefinition, _ int) string { return d.Name })
	slices.Sort(names)
	return names
}

func Lookup(name string) (ToolDefinition, bool) {
	return lo.Find(definitions(), func(d ToolDefinition) bool { return d.Name == name })
}

// CheckSchemas compiles every tool schema and fails on the first one that is
// not a valid JSON schema, or on duplicate tool names.
func CheckSchemas() error {
	if dupes := lo.FindDuplicates(Names()); len(dupes) > 0 {
		return fmt.Errorf("duplicate tool names: %v", dupes)
	}
	for _, def := range definitions() {
		if _, err := compileSchema(def); err != nil {
			return err
		}
	}
	return nil
}

func compileSchema(def ToolDefinition) (*schemacheck.Schema, error) {
	data, err := json.Marshal(def.Parameters())
	if err != nil {
		return nil, fmt.Errorf("tool %s: marshal schema: %w", def.Name, err)
	}
	doc, err := schemacheck.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tool %s: unmarshal schema: %w", def.Name, err)
	}

	url := def.Name + ".json"
	c := schemacheck.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("tool %s: add schema resource: %w", def.Name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("tool %s: compile schema: %w", def.Name, err)
	}
	return schema, nil
}
