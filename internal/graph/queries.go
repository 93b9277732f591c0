package graph

// Cypher executed against the Bolt backend. Nodes are merged by
// normalized name; edges carry the predicate as a property rather than
// a relationship type so reads stay parameterizable.
const (
	mergeTripleQuery = `
		MERGE (s:Entity {name: $subject})
		MERGE (o:Entity {name: $object})
		MERGE (s)-[r:RELATIONSHIP {type: $predicate}]->(o)
		SET r.sentence = $sentence,
			r.source = $source
	`

	outEdgesQuery = `
		MATCH (s:Entity {name: $name})-[r:RELATIONSHIP]->(o:Entity)
		RETURN s.name AS subject, r.type AS predicate, o.name AS object,
			r.sentence AS sentence, r.source AS source
		LIMIT $limit
	`

	inEdgesQuery = `
		MATCH (s:Entity)-[r:RELATIONSHIP]->(o:Entity {name: $name})
		RETURN s.name AS subject, r.type AS predicate, o.name AS object,
			r.sentence AS sentence, r.source AS source
		LIMIT $limit
	`

	resetQuery = `MATCH (n) DETACH DELETE n`
)
