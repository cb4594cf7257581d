package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chuolink/shule/core/staff"
)

type staffRepository struct {
	coll *mongo.Collection
}

func NewStaffRepository(db *mongo.Database) staff.Repository {
	return &staffRepository{coll: db.Collection(staffCollection)}
}

func (repo *staffRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...staff.Staff) error {
	exclIDs := make([]string, 0, len(excluded))
	for _, stf := range excluded {
		exclIDs = append(exclIDs, stf.ID)
	}

	check := func(field, value string, sentinel error) error {
		if value == "" {
			return nil
		}
		filter := bson.M{field: value}
		if len(exclIDs) > 0 {
			filter["_id"] = bson.M{"$nin": exclIDs}
		}
		n, err := repo.coll.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		if n > 0 {
			return sentinel
		}
		return nil
	}

	if err := check("username", username, staff.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, staff.ErrEmailExists)
}

func (repo *staffRepository) CreateStaff(ctx context.Context, stf staff.Staff) (staff.Staff, error) {
	stf.ID = primitive.NewObjectID().Hex()
	if _, err := repo.coll.InsertOne(ctx, stf); err != nil {
		return staff.Staff{}, err
	}
	return stf, nil
}

func (repo *staffRepository) QueryAllStaff(ctx context.Context) ([]staff.Staff, error) {
	return repo.find(ctx, bson.M{})
}

func (repo *staffRepository) find(ctx context.Context, filter bson.M) ([]staff.Staff, error) {
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	all := make([]staff.Staff, 0)
	if err := cursor.All(ctx, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (repo *staffRepository) getOne(ctx context.Context, filter bson.M) (staff.Staff, error) {
	var stf staff.Staff
	if err := repo.coll.FindOne(ctx, filter).Decode(&stf); err != nil {
		if err == mongo.ErrNoDocuments {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, err
	}
	return stf, nil
}

func (repo *staffRepository) GetStaffByID(ctx context.Context, id string) (staff.Staff, error) {
	return repo.getOne(ctx, bson.M{"_id": id})
}

func (repo *staffRepository) GetStaffByUsername(ctx context.Context, username string) (staff.Staff, error) {
	return repo.getOne(ctx, bson.M{"username": username})
}

func (repo *staffRepository) GetStaffByEmail(ctx context.Context, email string) (staff.Staff, error) {
	return repo.getOne(ctx, bson.M{"email": email})
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(ctx context.Context, username string) (staff.Staff, error) {
	return repo.getOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": username},
	}})
}

func (repo *staffRepository) FilterStaff(ctx context.Context, filter staff.QueryFilter) ([]staff.Staff, error) {
	filter.Clean()

	query := bson.M{}
	if filter.Search != "" {
		regex := bson.M{"$regex": filter.Search, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"username": regex},
			bson.M{"email": regex},
		}
	}
	if len(filter.Roles) > 0 {
		prefixes := make(bson.A, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			prefixes = append(prefixes, bson.M{"roles": bson.M{"$regex": "^" + role}})
		}
		query["$and"] = bson.A{bson.M{"$or": prefixes}}
	}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
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
	return repo.find(ctx, query)
}

func (repo *staffRepository) UpdateStaff(ctx context.Context, stf staff.Staff, isActive *bool) (staff.Staff, error) {
	set := bson.M{}
	if stf.Name != "" {
		set["name"] = stf.Name
	}
	if stf.Username != "" {
		set["username"] = stf.Username
	}
	if stf.Email != "" {
		set["email"] = stf.Email
	}
	if stf.Roles != nil {
		set["roles"] = stf.Roles
	}
	if stf.PasswordHash != nil {
		set["passwordHash"] = stf.PasswordHash
	}
	if !stf.LastLogin.IsZero() {
		set["lastLogin"] = stf.LastLogin
	}
	if !stf.UpdatedAt.IsZero() {
		set["updatedAt"] = stf.UpdatedAt
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	res := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": stf.ID},
		bson.M{"$set": set},
		mongoReturnUpdated(),
	)
	var updated staff.Staff
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, err
	}
	return updated, nil
}

func (repo *staffRepository) DeleteStaffByID(ctx context.Context, ids ...string) error {
	_, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (repo *staffRepository) CountStaff(ctx context.Context) (int64, error) {
	return repo.coll.CountDocuments(ctx, bson.M{})
}

func (repo *staffRepository) CountStaffByRole(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$roles"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$roles",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
