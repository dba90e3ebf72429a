package store

import (
	"context"
	"database/sql"

	"github.com/quiet-coder-io/domainos/internal/logging"
	"github.com/quiet-coder-io/domainos/internal/types"
)

// Domain is a row in the domains table.
type Domain struct {
	ID            int64
	Name          string
	Path          string
	Description   string
	ModelProvider string
	ModelName     string
	SortOrder     int64
}

// defaultModelForProvider names the model a domain falls back to when
// model_provider is set but model_name isn't, mirroring the teacher's
// DefaultProviderModel lookup table.
var defaultModelForProvider = map[string]string{
	"anthropic": "claude-sonnet-4-5-20250514",
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-2.5-flash",
	"ollama":    "llama3",
}

// coerceModelFields applies the Domain repository-level defensive rule: if
// model_provider is set but model_name is missing, fill model_name from the
// default table; if model_name is set but model_provider isn't, neither
// field is trustworthy on its own, so both are coerced to null and logged.
func coerceModelFields(d *Domain) {
	switch {
	case d.ModelProvider != "" && d.ModelName == "":
		if name, ok := defaultModelForProvider[d.ModelProvider]; ok {
			d.ModelName = name
		}
	case d.ModelProvider == "" && d.ModelName != "":
		logging.Repo("domain %q: model_name %q set without model_provider, coercing both to null", d.Name, d.ModelName)
		d.ModelName = ""
	}
}

// DomainRepo persists domains.
type DomainRepo struct {
	db *sql.DB
}

func NewDomainRepo(db *sql.DB) *DomainRepo { return &DomainRepo{db: db} }

func (r *DomainRepo) Create(ctx context.Context, name, path string) (*Domain, error) {
	if name == "" {
		return nil, types.NewValidation("name", "domain name is required")
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO domains (name, path) VALUES (?, ?)`, name, path)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to create domain", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to read new domain id", err)
	}
	logging.Repo("created domain id=%d name=%s", id, name)
	return &Domain{ID: id, Name: name, Path: path}, nil
}

func scanDomain(scan func(dest ...any) error) (*Domain, error) {
	var d Domain
	var description, modelProvider, modelName sql.NullString
	if err := scan(&d.ID, &d.Name, &d.Path, &description, &modelProvider, &modelName, &d.SortOrder); err != nil {
		return nil, err
	}
	d.Description = description.String
	d.ModelProvider = modelProvider.String
	d.ModelName = modelName.String
	coerceModelFields(&d)
	return &d, nil
}

func (r *DomainRepo) Get(ctx context.Context, id int64) (*Domain, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, path, description, model_provider, model_name, sort_order FROM domains WHERE id = ?`, id)
	d, err := scanDomain(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.NewNotFound("domain", id)
	}
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to fetch domain", err)
	}
	return d, nil
}

func (r *DomainRepo) List(ctx context.Context) ([]Domain, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, path, description, model_provider, model_name, sort_order FROM domains ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list domains", err)
	}
	defer rows.Close()

	var out []Domain
	for rows.Next() {
		d, err := scanDomain(rows.Scan)
		if err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan domain row", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Dependency is a row in domain_relationships.
type Dependency struct {
	ID              int64
	SourceDomainID  int64
	TargetDomainID  int64
	RelationshipType types.RelationshipType
	DependencyType  types.DependencyType
	Description     string
}

func (r *DomainRepo) AddRelationship(ctx context.Context, dep Dependency) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO domain_relationships (source_domain_id, target_domain_id, relationship_type, dependency_type, description)
		 VALUES (?, ?, ?, ?, ?)`,
		dep.SourceDomainID, dep.TargetDomainID, string(dep.RelationshipType), string(dep.DependencyType), dep.Description)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to add domain relationship", err)
	}
	return nil
}

func (r *DomainRepo) ListRelationships(ctx context.Context) ([]Dependency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_domain_id, target_domain_id, relationship_type, COALESCE(dependency_type,''), COALESCE(description,'') FROM domain_relationships`)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list relationships", err)
	}
	defer rows.Close()

	var out []Dependency
	for rows.Next() {
		var d Dependency
		var rel, dept string
		if err := rows.Scan(&d.ID, &d.SourceDomainID, &d.TargetDomainID, &rel, &dept, &d.Description); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan relationship row", err)
		}
		d.RelationshipType = types.RelationshipType(rel)
		d.DependencyType = types.DependencyType(dept)
		out = append(out, d)
	}
	return out, rows.Err()
}
