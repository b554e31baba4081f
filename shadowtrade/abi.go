// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shadowtrade

import "github.com/parsdao/shadowtrade/contract"

const rawABI = `[
	{"type":"function","name":"register","stateMutability":"nonpayable","inputs":[{"name":"handle","type":"bytes32"},{"name":"inputProof","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"purchase","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"payment","type":"uint256"}]},
	{"type":"function","name":"setPrice","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"price","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"requestDecryption","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"requestId","type":"bytes32"}]},
	{"type":"function","name":"onDecryptionCallback","stateMutability":"nonpayable","inputs":[{"name":"requestId","type":"bytes32"},{"name":"plaintext","type":"address"},{"name":"proof","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"amount","type":"uint256"}]},
	{"type":"function","name":"requestVerification","stateMutability":"nonpayable","inputs":[{"name":"collection","type":"address"}],"outputs":[{"name":"requestId","type":"bytes32"}]},
	{"type":"function","name":"onVerificationCallback","stateMutability":"nonpayable","inputs":[{"name":"requestId","type":"bytes32"},{"name":"verified","type":"bool"}],"outputs":[]},
	{"type":"function","name":"recordReward","stateMutability":"nonpayable","inputs":[{"name":"collection","type":"address"}],"outputs":[{"name":"amount","type":"uint256"}]},
	{"type":"function","name":"authorizeCollection","stateMutability":"nonpayable","inputs":[{"name":"collection","type":"address"},{"name":"authorized","type":"bool"}],"outputs":[]},
	{"type":"function","name":"setRewardAmount","stateMutability":"nonpayable","inputs":[{"name":"collection","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"markRewardClaimed","stateMutability":"nonpayable","inputs":[{"name":"account","type":"address"},{"name":"collection","type":"address"}],"outputs":[]},
	{"type":"function","name":"grantRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"uint8"},{"name":"account","type":"address"}],"outputs":[]},
	{"type":"function","name":"revokeRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"uint8"},{"name":"account","type":"address"}],"outputs":[]},
	{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},

	{"type":"function","name":"getRegistration","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"registered","type":"bool"},{"name":"handle","type":"bytes32"},{"name":"registeredAt","type":"uint64"}]},
	{"type":"function","name":"getPrice","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getBalance","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getOutstanding","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getReveal","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"state","type":"uint8"},{"name":"requestId","type":"bytes32"},{"name":"proxy","type":"address"},{"name":"requestedAt","type":"uint64"},{"name":"revealedAt","type":"uint64"}]},
	{"type":"function","name":"getDecryptionRequest","stateMutability":"view","inputs":[{"name":"requestId","type":"bytes32"}],"outputs":[{"name":"account","type":"address"},{"name":"handle","type":"bytes32"},{"name":"status","type":"uint8"},{"name":"requestedAt","type":"uint64"}]},
	{"type":"function","name":"resolveProxy","stateMutability":"view","inputs":[{"name":"proxy","type":"address"}],"outputs":[{"name":"account","type":"address"},{"name":"found","type":"bool"}]},
	{"type":"function","name":"getAttestation","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"collection","type":"address"}],"outputs":[{"name":"verified","type":"bool"},{"name":"finalized","type":"bool"},{"name":"verifiedAt","type":"uint64"}]},
	{"type":"function","name":"getPendingVerification","stateMutability":"view","inputs":[{"name":"requestId","type":"bytes32"}],"outputs":[{"name":"account","type":"address"},{"name":"collection","type":"address"},{"name":"requestedAt","type":"uint64"},{"name":"complete","type":"bool"},{"name":"exists","type":"bool"}]},
	{"type":"function","name":"isCollectionAuthorized","stateMutability":"view","inputs":[{"name":"collection","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getRewardAmount","stateMutability":"view","inputs":[{"name":"collection","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getReward","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"collection","type":"address"}],"outputs":[{"name":"amount","type":"uint256"},{"name":"claimed","type":"bool"},{"name":"recordedAt","type":"uint64"},{"name":"exists","type":"bool"}]},
	{"type":"function","name":"totalRewards","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"hasUnclaimedReward","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"collection","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"hasRole","stateMutability":"view","inputs":[{"name":"role","type":"uint8"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},

	{"type":"event","name":"Registered","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":true},{"name":"handle","type":"bytes32","indexed":false}]},
	{"type":"event","name":"Purchased","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":true},{"name":"asset","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"payment","type":"uint256","indexed":false}]},
	{"type":"event","name":"PriceSet","anonymous":false,"inputs":[{"name":"asset","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}]},
	{"type":"event","name":"DecryptionRequested","anonymous":false,"inputs":[{"name":"requestId","type":"bytes32","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"handle","type":"bytes32","indexed":false}]},
	{"type":"event","name":"Revealed","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":true},{"name":"proxy","type":"address","indexed":true},{"name":"requestId","type":"bytes32","indexed":false}]},
	{"type":"event","name":"Withdrawn","anonymous":false,"inputs":[{"name":"proxy","type":"address","indexed":true},{"name":"asset","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"VerificationRequested","anonymous":false,"inputs":[{"name":"requestId","type":"bytes32","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"collection","type":"address","indexed":false}]},
	{"type":"event","name":"VerificationCompleted","anonymous":false,"inputs":[{"name":"requestId","type":"bytes32","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"collection","type":"address","indexed":false},{"name":"verified","type":"bool","indexed":false}]},
	{"type":"event","name":"RewardRecorded","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":true},{"name":"collection","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

// ABI is the call surface of the ShadowTrade precompile.
var ABI = contract.ParseABI(rawABI)
