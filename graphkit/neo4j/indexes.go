package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// IndexSpec describes a range index on node properties.
type IndexSpec struct {
	// Name is optional; Neo4j generates one when empty.
	Name       string
	Label      string
	Properties []string
}

// Statement renders the idempotent CREATE INDEX statement for s.
func (s IndexSpec) Statement() (string, error) {
	if strings.TrimSpace(s.Label) == "" || len(s.Properties) == 0 {
		return "", fmt.Errorf("%w: label and at least one property are required", ErrInvalidIndex)
	}

	props := make([]string, 0, len(s.Properties))

	for _, p := range s.Properties {
		if strings.TrimSpace(p) == "" {
			return "", fmt.Errorf("%w: blank property on label %q", ErrInvalidIndex, s.Label)
		}

		props = append(props, "n."+quoteIdentifier(p))
	}

	var b strings.Builder

	b.WriteString("CREATE INDEX ")

	if name := strings.TrimSpace(s.Name); name != "" {
		b.WriteString(quoteIdentifier(name))
		b.WriteString(" ")
	}

	fmt.Fprintf(&b, "IF NOT EXISTS FOR (n:%s) ON (%s)", quoteIdentifier(s.Label), strings.Join(props, ", "))

	return b.String(), nil
}

// EnsureIndexes creates every index in specs that does not exist yet. All
// specs are attempted; failures are joined.
func (e *Extension) EnsureIndexes(ctx context.Context, specs ...IndexSpec) error {
	if ctx == nil {
		return ErrNilContext
	}

	d, err := e.Driver()
	if err != nil {
		return err
	}

	return createIndexes(ctx, d, e.Settings().Database, specs)
}

// createIndexes runs one scoped session per spec on d. It takes no lock so
// attach can call it before the driver is published.
func createIndexes(ctx context.Context, d Driver, database string, specs []IndexSpec) error {
	var errs []error

	for _, spec := range specs {
		statement, err := spec.Statement()
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := runStatement(ctx, d, database, statement); err != nil {
			errs = append(errs, fmt.Errorf("create index on %s: %w", spec.Label, err))
		}
	}

	return errors.Join(errs...)
}

func runStatement(ctx context.Context, d Driver, database, statement string) error {
	session := d.NewSession(ctx, driver.SessionConfig{DatabaseName: database, AccessMode: driver.AccessModeWrite})

	result, err := session.Run(ctx, statement, nil)
	if err == nil {
		_, err = result.Collect(ctx)
	}

	if closeErr := session.Close(ctx); closeErr != nil && err == nil {
		err = fmt.Errorf("%w: %w", ErrSessionClose, closeErr)
	}

	return err
}

// DropIndex removes the named index if it exists.
func (e *Extension) DropIndex(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: index name is required", ErrInvalidIndex)
	}

	_, err := e.Execute(ctx, "DROP INDEX "+quoteIdentifier(name)+" IF EXISTS", nil)

	return err
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
