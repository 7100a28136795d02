package apitablev1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/service"
)

func BuildV1Tables(v1 *box.R, s service.Servicer) *box.R {

	tables := v1.Resource("/tables").
		WithActions(
			box.Get(listTables),
			box.Post(createTable),
		)

	v1.Resource("/tables/{tableName}").
		WithActions(
			box.Get(getTable),
			box.Delete(dropTable),
		)

	v1.Resource("/tables/{tableName}/size").
		WithActions(
			box.Get(size),
		)

	v1.Resource("/tables/{tableName}/documents").
		WithActions(
			box.Post(insert),
			box.ActionPost(find),
			box.ActionPost(remove),
			box.ActionPost(patch),
		)

	v1.Resource("/tables/{tableName}/documents/{documentKey}").
		WithActions(
			box.Get(getDocument),
			box.Patch(patchDocument),
			box.Delete(removeDocument),
		)

	v1.Resource("/tables/{tableName}/documents/{documentKey}/fields/{fieldPath}").
		WithActions(
			box.Get(getField),
			box.Put(setField),
		)

	v1.Resource("/tables/{tableName}/indexes").
		WithActions(
			box.Get(listIndexes),
			box.Post(createIndex),
		)

	v1.Resource("/tables/{tableName}/indexes/{indexName}").
		WithActions(
			box.Get(getIndex),
			box.Delete(dropIndex),
		)

	return tables
}
