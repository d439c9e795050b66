package snapshot

// Hub list queries page via first/skip and filter on the monotonic created
// timestamp, so a watermark is all the resume state a sync stream needs.

const QueryProposalsSince = `
query Proposals($first: Int!, $skip: Int!, $createdGt: Int!) {
  proposals(
    first: $first,
    skip: $skip,
    where: { created_gt: $createdGt },
    orderBy: "created",
    orderDirection: asc
  ) {
    id
    title
    body
    choices
    start
    end
    snapshot
    state
    author
    scores
    scores_total
    created
    space {
      id
      name
    }
  }
}`

const QueryProposalVotes = `
query Votes($first: Int!, $proposal: String!) {
  votes(
    first: $first,
    where: { proposal: $proposal },
    orderBy: "created",
    orderDirection: desc
  ) {
    id
    voter
    choice
    created
  }
}`

const QuerySpace = `
query Space($id: String!) {
  space(id: $id) {
    id
    name
    about
    network
    symbol
    strategies {
      name
      params
    }
    members
    admins
  }
}`

const QuerySpaceFollows = `
query SpaceFollows($first: Int!, $space: String!) {
  follows(
    first: $first,
    where: { space: $space }
  ) {
    id
    follower
    space {
      id
    }
    created
  }
}`

const QueryUsers = `
query Users($ids: [String!]) {
  users(where: { id_in: $ids }) {
    id
    name
    about
    avatar
    twitter
    lens
    farcaster
  }
}`
