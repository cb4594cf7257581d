package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chuolink/shule/core/student"
)

type studentRepository struct {
	coll *mongo.Collection
}

func NewStudentRepository(db *mongo.Database) student.Repository {
	return &studentRepository{coll: db.Collection(studentsCollection)}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	st.ID = primitive.NewObjectID().Hex()
	if _, err := repo.coll.InsertOne(ctx, st); err != nil {
		return student.Student{}, err
	}
	return st, nil
}

func (repo *studentRepository) find(ctx context.Context, filter bson.M) ([]student.Student, error) {
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	all := make([]student.Student, 0)
	if err := cursor.All(ctx, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	return repo.find(ctx, bson.M{})
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var st student.Student
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return st, nil
}

// FilterStudents runs demographic filters in the query; level-range
// filters are resolved in memory against the ledger's EffectiveLevel,
// since the stored currentLevel may have drifted and the ledger wins.
func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	filter.Clean()

	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	if filter.Gender != "" {
		query["gender"] = filter.Gender
	}
	if filter.Program != "" {
		query["program"] = filter.Program
	}
	if filter.Campus != "" {
		query["campus"] = filter.Campus
	}
	created := bson.M{}
	if !filter.CreatedFrom.IsZero() {
		created["$gte"] = filter.CreatedFrom
	}
	if !filter.CreatedTo.IsZero() {
		created["$lte"] = filter.CreatedTo
	}
	if len(created) > 0 {
		query["createdAt"] = created
	}

	students, err := repo.find(ctx, query)
	if err != nil {
		return nil, err
	}
	if filter.MinLevel == 0 && filter.MaxLevel == 0 {
		return students, nil
	}
	matched := make([]student.Student, 0, len(students))
	for _, st := range students {
		lvl := st.EffectiveLevel()
		if filter.MinLevel > 0 && lvl < filter.MinLevel {
			continue
		}
		if filter.MaxLevel > 0 && lvl > filter.MaxLevel {
			continue
		}
		matched = append(matched, st)
	}
	return matched, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	// demographics only; the ledger and remarks are append-only and never
	// rewritten by updates
	set := bson.M{
		"name":      st.Name,
		"gender":    st.Gender,
		"program":   st.Program,
		"campus":    st.Campus,
		"phone":     st.Phone,
		"email":     st.Email,
		"updatedAt": st.UpdatedAt,
	}

	res := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": st.ID}, bson.M{"$set": set}, mongoReturnUpdated())
	var updated student.Student
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return updated, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	_, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (repo *studentRepository) AppendLevelEvents(ctx context.Context, id string, events []student.LevelEvent, update student.LevelUpdate) (student.Student, error) {
	set := bson.M{"currentLevel": update.CurrentLevel}
	if update.AdmittedOn != nil {
		set["admitted"] = true
		set["admittedOn"] = *update.AdmittedOn
	}

	res := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"levelHistory": bson.M{"$each": events}},
			"$set":  set,
		},
		mongoReturnUpdated(),
	)
	var updated student.Student
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return updated, nil
}

func (repo *studentRepository) AppendRemark(ctx context.Context, id string, rm student.Remark) (student.Student, error) {
	res := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"remarks": rm}},
		mongoReturnUpdated(),
	)
	var updated student.Student
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return updated, nil
}

func (repo *studentRepository) CountStudents(ctx context.Context) (int64, error) {
	return repo.coll.CountDocuments(ctx, bson.M{})
}
