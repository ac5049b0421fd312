// Package locust renders captured flows into Locust load-test scripts.
//
// Rendering happens in two steps. A Renderer first turns a flow into a Task,
// a structured description of one generated task method whose string fields
// are already valid Python expressions. The Task is then executed through a
// versioned text/template for the configured Dialect.
//
// Scripts for the same host are merged by splicing: every script carries an
// AnchorMarker line after its last task, and new tasks are inserted right
// before it. The Registry keeps one accumulated script per host.
package locust
