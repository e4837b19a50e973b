package mongodb

import (
	"context"
	"fmt"

	// --- Importaciones del dominio y compartidas ---
	sharedDomain "github.com/davicafu/skidash/internal/shared/domain"
	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/skidash/internal/shared/infra/utils"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const passesCollection = "ski_passes"

// PassRepoMongoDB implementa PassRepository sobre la colección ski_passes.
type PassRepoMongoDB struct {
	coll *mongo.Collection
}

var _ skiDomain.PassRepository = (*PassRepoMongoDB)(nil)

// NewPassRepoMongoDB es el constructor del repositorio.
func NewPassRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*PassRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return &PassRepoMongoDB{coll: client.Database(dbName).Collection(passesCollection)}, nil
}

// --- Struct de BSON para el mapeo ---
// Se define localmente para no "contaminar" el dominio con tags de BSON.

type mongoPass struct {
	ID     int     `bson:"_id"`
	Saison string  `bson:"saison"`
	Prix   float64 `bson:"prix"`
	Age    int     `bson:"age"`
	Niveau string  `bson:"niveau"`
	Compte bool    `bson:"compte"`
	Passe  string  `bson:"passe"`
}

// --- Escritura ---

// InsertBatch inserta los documentos en orden; el primero que falle corta el lote.
func (r *PassRepoMongoDB) InsertBatch(ctx context.Context, records []skiDomain.SkiPass) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i, p := range records {
		docs[i] = toMongoPass(p)
	}
	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to insert ski passes: %w", err)
	}
	return nil
}

// DeleteAll vacía la colección antes de una importación completa.
func (r *PassRepoMongoDB) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{})
	return err
}

// --- Lectura ---

// Fetch devuelve la colección completa ordenada por id.
func (r *PassRepoMongoDB) Fetch(ctx context.Context) ([]skiDomain.SkiPass, error) {
	return r.find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *PassRepoMongoDB) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]skiDomain.SkiPass, error) {
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return nil, err
	}
	opts := options.Find()

	// Paginación
	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		opts.SetSkip(int64(p.Offset))
		opts.SetLimit(int64(p.Limit))
	}

	// Ordenamiento; el id desempata siempre
	sortKeys, err := sortToMongo(sort)
	if err != nil {
		return nil, err
	}
	opts.SetSort(sortKeys)

	return r.find(ctx, filter, opts)
}

func (r *PassRepoMongoDB) Count(ctx context.Context, criteria sharedDomain.Criteria) (int, error) {
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return 0, err
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *PassRepoMongoDB) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]skiDomain.SkiPass, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	passes := []skiDomain.SkiPass{}
	for cursor.Next(ctx) {
		var mp mongoPass
		if err := cursor.Decode(&mp); err != nil {
			return nil, err
		}
		passes = append(passes, fromMongoPass(mp))
	}
	return passes, cursor.Err()
}

// --- Helpers de Mapeo y Conversión ---

func toMongoPass(p skiDomain.SkiPass) mongoPass {
	return mongoPass{
		ID: p.ID, Saison: string(p.Saison), Prix: p.Prix, Age: p.Age,
		Niveau: string(p.Niveau), Compte: p.Compte, Passe: string(p.Passe),
	}
}

func fromMongoPass(mp mongoPass) skiDomain.SkiPass {
	return skiDomain.SkiPass{
		ID: mp.ID, Saison: skiDomain.Saison(mp.Saison), Prix: mp.Prix, Age: mp.Age,
		Niveau: skiDomain.Niveau(mp.Niveau), Compte: mp.Compte, Passe: skiDomain.Passe(mp.Passe),
	}
}

// fieldKey traduce el nombre de campo del dominio a la clave del documento.
func fieldKey(field string) (string, error) {
	switch field {
	case skiDomain.FieldID:
		return "_id", nil
	case skiDomain.FieldSaison, skiDomain.FieldPrix, skiDomain.FieldAge,
		skiDomain.FieldNiveau, skiDomain.FieldCompte, skiDomain.FieldPasse:
		return field, nil
	default:
		return "", fmt.Errorf("%w: unknown field %q", skiDomain.ErrInvalidFilter, field)
	}
}

func sortToMongo(sort sharedQuery.Sort) (bson.D, error) {
	dir := sharedUtils.Ternary(sort.Desc, -1, 1)
	if sort.Field == "" || sort.Field == skiDomain.FieldID {
		return bson.D{{Key: "_id", Value: dir}}, nil
	}
	key, err := fieldKey(sort.Field)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: key, Value: dir}, {Key: "_id", Value: 1}}, nil
}

// criteriaToMongoFilter respeta los AND anidados. Un composite vacío no filtra.
func criteriaToMongoFilter(criteria sharedDomain.Criteria) (bson.D, error) {
	if criteria == nil {
		return bson.D{}, nil
	}

	if composite, ok := criteria.(sharedDomain.CompositeCriteria); ok {
		var parts bson.A
		for _, c := range composite.Criterias {
			part, err := criteriaToMongoFilter(c)
			if err != nil {
				return nil, err
			}
			if len(part) > 0 {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			return bson.D{}, nil
		}
		if composite.Operator != sharedDomain.OpAnd {
			return nil, fmt.Errorf("%w: unsupported logical operator %q", skiDomain.ErrInvalidFilter, composite.Operator)
		}
		return bson.D{{Key: "$and", Value: parts}}, nil
	}

	conds := criteria.ToConditions()
	if len(conds) == 0 {
		return bson.D{}, nil
	}

	// Dos condiciones sobre el mismo campo (un rango) no pueden ir como claves
	// repetidas del documento, así que se combinan con $and.
	var parts bson.A
	for _, c := range conds {
		cond, err := conditionToMongo(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, cond)
	}
	if len(parts) == 1 {
		return parts[0].(bson.D), nil
	}
	return bson.D{{Key: "$and", Value: parts}}, nil
}

func conditionToMongo(c sharedDomain.Criterion) (bson.D, error) {
	key, err := fieldKey(c.Field)
	if err != nil {
		return nil, err
	}

	// Mapeo de operadores genéricos a operadores de MongoDB
	var mongoOp string
	switch c.Op {
	case sharedDomain.OpEq:
		mongoOp = "$eq"
	case sharedDomain.OpGt:
		mongoOp = "$gt"
	case sharedDomain.OpGte:
		mongoOp = "$gte"
	case sharedDomain.OpLt:
		mongoOp = "$lt"
	case sharedDomain.OpLte:
		mongoOp = "$lte"
	default:
		return nil, fmt.Errorf("%w: unsupported operator %q", skiDomain.ErrInvalidFilter, c.Op)
	}
	return bson.D{{Key: key, Value: bson.M{mongoOp: c.Value}}}, nil
}
