package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chuolink/shule/core/class"
)

type classRepository struct {
	coll *mongo.Collection
}

func NewClassRepository(db *mongo.Database) class.Repository {
	return &classRepository{coll: db.Collection(classesCollection)}
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = primitive.NewObjectID().Hex()
	if _, err := repo.coll.InsertOne(ctx, cls); err != nil {
		return class.Class{}, err
	}
	return cls, nil
}

func (repo *classRepository) find(ctx context.Context, filter bson.M) ([]class.Class, error) {
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	all := make([]class.Class, 0)
	if err := cursor.All(ctx, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (repo *classRepository) QueryAllClasses(ctx context.Context) ([]class.Class, error) {
	return repo.find(ctx, bson.M{})
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	var cls class.Class
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cls); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, err
	}
	return cls, nil
}

func (repo *classRepository) FilterClasses(ctx context.Context, filter class.QueryFilter) ([]class.Class, error) {
	filter.Clean()

	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	if filter.Program != "" {
		query["program"] = filter.Program
	}
	if filter.Campus != "" {
		query["campus"] = filter.Campus
	}
	return repo.find(ctx, query)
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	set := bson.M{
		"name":         cls.Name,
		"program":      cls.Program,
		"campus":       cls.Campus,
		"capacity":     cls.Capacity,
		"teacherLabel": cls.TeacherLabel,
		"updatedAt":    cls.UpdatedAt,
	}

	res := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": cls.ID}, bson.M{"$set": set}, mongoReturnUpdated())
	var updated class.Class
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, err
	}
	return updated, nil
}

func (repo *classRepository) DeleteClassesByID(ctx context.Context, ids ...string) error {
	_, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (repo *classRepository) AppendSlot(ctx context.Context, id string, slot class.Slot) (class.Class, error) {
	res := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"slots": slot}},
		mongoReturnUpdated(),
	)
	var updated class.Class
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, err
	}
	return updated, nil
}

func (repo *classRepository) RemoveSlot(ctx context.Context, id, slotID string) (class.Class, error) {
	res := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"slots": bson.M{"id": slotID}}},
		mongoReturnUpdated(),
	)
	var updated class.Class
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, err
	}
	return updated, nil
}

func (repo *classRepository) CountClasses(ctx context.Context) (int64, error) {
	return repo.coll.CountDocuments(ctx, bson.M{})
}
