package gql

// Schema is the typed reservation surface served at /graphql
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

enum ReservationStatus {
	requested
	confirmed
	pending
	cancelled
}

type ContactInfo {
	email: String!
	phone: String!
}

type Reservation {
	id: ID!
	guestName: String!
	contactInfo: ContactInfo!
	arrivalTime: String!
	tableSize: Int!
	status: ReservationStatus!
	specialRequests: String
	createdAt: String!
	updatedAt: String!
}

# Input fields are nullable so that missing or malformed values are reported
# by the reservation validator, with the same codes as the REST surface.
input ContactInfoInput {
	email: String
	phone: String
}

input ReservationInput {
	guestName: String
	contactInfo: ContactInfoInput
	arrivalTime: String
	tableSize: Int
	status: String
	specialRequests: String
}

input ReservationUpdateInput {
	guestName: String
	contactInfo: ContactInfoInput
	arrivalTime: String
	tableSize: Int
	status: String
	specialRequests: String
}

type Query {
	getAllReservations: [Reservation!]!
	getReservationById(id: ID!): Reservation
	getReservationsByDate(date: String!): [Reservation!]!
	getReservationsByStatus(status: String!): [Reservation!]!
}

type Mutation {
	createReservation(input: ReservationInput!): Reservation!
	updateReservation(id: ID!, input: ReservationUpdateInput!): Reservation
	updateReservationAsStaff(id: ID!, input: ReservationUpdateInput!): Reservation
	cancelReservation(id: ID!): Reservation
}
`
